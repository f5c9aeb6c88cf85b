package auth

import "errors"

// Credential failure taxonomy. Raw signing-library errors never cross this
// package's boundary; ParseToken normalizes everything to one of these so
// callers can branch with errors.Is while logs keep the underlying cause.
var (
	// ErrMissingCredential indicates the request carried no usable
	// Authorization header.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidSignature indicates the token signature did not match.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenExpired indicates a well-formed, correctly signed token whose
	// expiration instant has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed indicates the token could not be parsed at all.
	ErrTokenMalformed = errors.New("malformed token")
)
