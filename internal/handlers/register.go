package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"unicode"

	"github.com/sbilibin2017/gw-auth-service/internal/logger"
	"github.com/sbilibin2017/gw-auth-service/internal/models"
	"github.com/sbilibin2017/gw-auth-service/internal/services"
)

// Registerer defines the interface that the registration service must implement.
type Registerer interface {
	Register(ctx context.Context, email, password string, firstName, lastName *string) (*models.PublicUser, error)
}

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Email
	// required: true
	// default: john@example.com
	Email string `json:"email"`

	// Password
	// required: true
	// default: Passw0rd!
	Password string `json:"password"`

	// First name
	FirstName *string `json:"first_name,omitempty"`

	// Last name
	LastName *string `json:"last_name,omitempty"`
}

// RegisterResponse represents a successful registration response
// swagger:model RegisterResponse
type RegisterResponse struct {
	// Success message
	// default: User registered successfully
	Message string `json:"message"`

	// Created user
	User *models.PublicUser `json:"user"`
}

// RegisterErrorResponse represents an error response for registration
// swagger:model RegisterErrorResponse
type RegisterErrorResponse struct {
	// Error message
	// default: User with this email already exists
	Error string `json:"error"`
}

// ValidationErrorResponse carries per-field validation messages
// swagger:model ValidationErrorResponse
type ValidationErrorResponse struct {
	// Validation messages
	Errors []string `json:"errors"`
}

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateRegisterRequest collects validation messages for a registration body.
func validateRegisterRequest(req RegisterRequest) []string {
	var errs []string

	if !emailRegexp.MatchString(req.Email) {
		errs = append(errs, "Valid email is required")
	}

	if len(req.Password) < 8 {
		errs = append(errs, "Password must be at least 8 characters long")
	} else {
		var hasUpper, hasLower, hasDigit bool
		for _, r := range req.Password {
			switch {
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		if !hasUpper || !hasLower || !hasDigit {
			errs = append(errs, "Password must contain at least one uppercase letter, one lowercase letter, and one number")
		}
	}

	if req.FirstName != nil && (len(*req.FirstName) < 1 || len(*req.FirstName) > 100) {
		errs = append(errs, "First name must be between 1 and 100 characters")
	}
	if req.LastName != nil && (len(*req.LastName) < 1 || len(*req.LastName) > 100) {
		errs = append(errs, "Last name must be between 1 and 100 characters")
	}

	return errs
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new user account with a unique email. Password is hashed before storing.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body handlers.RegisterRequest true "User registration request"
// @Success 201 {object} handlers.RegisterResponse "User successfully registered"
// @Failure 400 {object} handlers.ValidationErrorResponse "Invalid request body"
// @Failure 409 {object} handlers.RegisterErrorResponse "Email already registered"
// @Failure 500 {object} handlers.RegisterErrorResponse "Internal server error"
// @Router /register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ValidationErrorResponse{
				Errors: []string{"invalid request body"},
			})
			return
		}

		if errs := validateRegisterRequest(req); len(errs) > 0 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ValidationErrorResponse{
				Errors: errs,
			})
			return
		}

		user, err := svc.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmailAlreadyExists):
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(RegisterErrorResponse{
					Error: "User with this email already exists",
				})
			case errors.Is(err, services.ErrEmptyCredentials):
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(ValidationErrorResponse{
					Errors: []string{"email and password are required"},
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(RegisterErrorResponse{
					Error: "Internal server error",
				})
			}
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(RegisterResponse{
			Message: "User registered successfully",
			User:    user,
		})
	}
}
