package domain

// Identity is the decoded claims of a session credential. It is derived,
// never constructed independently: always the output of a successful
// token verification (or the login response on the client side).
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Complete reports whether the identity carries the required fields.
// Partial identities read back from storage are treated as corrupt.
func (i Identity) Complete() bool {
	return i.UserID != "" && i.Email != ""
}
