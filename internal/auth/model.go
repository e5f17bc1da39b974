package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"student-records/internal/apperror"
	"student-records/internal/student"
)

var (
	ErrMissingToken       = apperror.Authentication("Access token required")
	ErrInvalidToken       = apperror.Authentication("Invalid or expired token")
	ErrInvalidCredentials = apperror.Authentication("Invalid email or password")

	ErrRegisterFieldsRequired = apperror.Validation("Name, email, and password are required")
	ErrLoginFieldsRequired    = apperror.Validation("Email and password are required")
	ErrInvalidEmail           = apperror.Validation("Invalid email address")
	ErrPasswordTooLong        = apperror.Validation("Password must be at most 72 bytes")
	ErrInvalidAge             = apperror.Validation("Age must be between 0 and 150")
)

// bcrypt only hashes the first 72 bytes and rejects longer input.
const maxPasswordBytes = 72

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Age      *Age    `json:"age" validate:"omitempty,min=0,max=150"`
	Grade    *string `json:"grade"`
	Major    *string `json:"major"`
}

// Age accepts a JSON number or a numeric string such as "20".
type Age int

func (a *Age) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("age %q is not a whole number", raw)
		}
		*a = Age(n)
		return nil
	}

	var n int
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("age is not a whole number: %w", err)
	}
	*a = Age(n)
	return nil
}

func (a *Age) intPtr() *int {
	if a == nil {
		return nil
	}
	v := int(*a)
	return &v
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is the data of a successful register or login
type AuthResponse struct {
	Student *student.Student `json:"student"`
	Token   string           `json:"token"`
}

type ProfileResponse struct {
	Student *student.Student `json:"student"`
}
