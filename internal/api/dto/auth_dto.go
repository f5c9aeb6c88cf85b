package dto

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPayload is the identity projection returned to clients.
type UserPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// AuthResponse is the login/register response body. The client requires
// both fields; either one missing makes the whole login invalid.
type AuthResponse struct {
	User  UserPayload `json:"user"`
	Token string      `json:"token"`
}

// VerifyResponse reports server-confirmed session validity.
type VerifyResponse struct {
	Valid bool         `json:"valid"`
	User  *UserPayload `json:"user,omitempty"`
}
