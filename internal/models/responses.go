package models

// AuthResponse represents the response to a successful login or registration
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse represents the response to a token refresh
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// CountResponse reports how many rows a bulk operation affected
type CountResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}
