package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-auth-service/internal/logger"
	"github.com/sbilibin2017/gw-auth-service/internal/middlewares"
	"github.com/sbilibin2017/gw-auth-service/internal/models"
	"github.com/sbilibin2017/gw-auth-service/internal/services"
)

// UserProvider defines the interface that the profile service must implement.
type UserProvider interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.PublicUser, error)
}

// MeResponse represents the current user's profile
// swagger:model MeResponse
type MeResponse struct {
	// Current user
	User *models.PublicUser `json:"user"`
}

// MeErrorResponse represents an error response for the profile endpoint
// swagger:model MeErrorResponse
type MeErrorResponse struct {
	// Error message
	// default: Unauthorized
	Error string `json:"error"`
}

// NewMeHandler returns an HTTP handler serving the authenticated user's profile.
// The identity comes from the request context populated by the auth middleware.
// @Summary Get current user
// @Description Returns the profile of the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} handlers.MeResponse "Current user profile"
// @Failure 401 {object} handlers.MeErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.MeErrorResponse "User no longer exists"
// @Failure 500 {object} handlers.MeErrorResponse "Internal server error"
// @Router /me [get]
// @Security BearerAuth
func NewMeHandler(svc UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx := r.Context()

		identity := middlewares.GetIdentityFromContext(ctx)
		if identity == nil {
			logger.Log.Error("profile request without identity in context")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(MeErrorResponse{
				Error: "Unauthorized",
			})
			return
		}

		user, err := svc.Get(ctx, identity.UserID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				// Token outlived the account: stateless tokens stay valid
				// until expiry even if the account is gone.
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(MeErrorResponse{
					Error: "User not found",
				})
				return
			}
			logger.Log.Errorw("failed to get user profile", "userID", identity.UserID, "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(MeErrorResponse{
				Error: "Internal server error",
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(MeResponse{
			User: user,
		})
	}
}
