package model

import (
	"errors"
	"fmt"
	"strings"
)

// LoginRequest carries the user's credentials for /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Tokens is the token pair issued on login or refresh.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RegisterRequest is the body for /v1/auth/register. Only Username, Email and
// Password are required.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Validate checks the limits the service enforces before it is asked.
func (r RegisterRequest) Validate() error {
	switch {
	case len(r.Username) < 3:
		return errors.New("username must be at least 3 characters")
	case !strings.Contains(r.Email, "@"):
		return fmt.Errorf("email %q is not valid", r.Email)
	case len(r.Password) < 8:
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// RegisteredUser is the public view of a newly created account.
type RegisteredUser struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	ID        int    `json:"id"`
	IsActive  bool   `json:"is_active"`
}

// PasswordChangeRequest is the body for /v1/auth/change-password.
type PasswordChangeRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// MessageResponse is the {"message": ...} body several endpoints return.
type MessageResponse struct {
	Message string `json:"message"`
}
