package response

import "github.com/felicity-portal/felicity-api/internal/domain"

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type PasswordResetResponse struct {
	Message           string `json:"message"`
	TemporaryPassword string `json:"temporary_password"`
}

type RegistrationResponse struct {
	Message      string              `json:"message,omitempty"`
	Registration domain.Registration `json:"registration"`
}
