package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-auth-service/internal/logger"
	"github.com/sbilibin2017/gw-auth-service/internal/models"
	"github.com/sbilibin2017/gw-auth-service/internal/services"
)

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, email, password string) (*models.PublicUser, string, error)
}

// LoginRequest represents the JSON body for user login
// swagger:model LoginRequest
type LoginRequest struct {
	// Email
	// required: true
	// default: john@example.com
	Email string `json:"email"`

	// Password
	// required: true
	// default: Passw0rd!
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
// swagger:model LoginResponse
type LoginResponse struct {
	// Success message
	// default: Login successful
	Message string `json:"message"`

	// Authenticated user
	User *models.PublicUser `json:"user"`

	// JWT token
	// default: JWT_TOKEN
	Token string `json:"token"`
}

// LoginErrorResponse represents an error response for login
// swagger:model LoginErrorResponse
type LoginErrorResponse struct {
	// Error message
	// default: Invalid email or password
	Error string `json:"error"`
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body handlers.LoginRequest true "Login Request"
// @Success 200 {object} handlers.LoginResponse "User and JWT token returned"
// @Failure 400 {object} handlers.LoginErrorResponse "Invalid request body"
// @Failure 401 {object} handlers.LoginErrorResponse "Invalid email or password"
// @Failure 500 {object} handlers.LoginErrorResponse "Internal server error"
// @Router /login [post]
func NewLoginHandler(svc Loginer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(LoginErrorResponse{
				Error: "invalid request body",
			})
			return
		}

		user, token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidCredentials):
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(LoginErrorResponse{
					Error: "Invalid email or password",
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(LoginErrorResponse{
					Error: "Internal server error",
				})
			}
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(LoginResponse{
			Message: "Login successful",
			User:    user,
			Token:   token,
		})
	}
}
