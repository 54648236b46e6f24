package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-auth-service/internal/logger"
	"github.com/sbilibin2017/gw-auth-service/internal/models"
)

// ErrUserNotFound is returned when the requested user does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserGetter defines user lookup by ID.
type UserGetter interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error)
}

// UserCache caches public user profiles.
type UserCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.PublicUser, error)
	Set(ctx context.Context, user *models.PublicUser) error
}

// UserService serves public user profiles with a read-through cache.
type UserService struct {
	reader UserGetter
	cache  UserCache
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(reader UserGetter, cache UserCache) *UserService {
	return &UserService{
		reader: reader,
		cache:  cache,
	}
}

// Get returns the public view of the user with the given ID.
// Cache failures fall through to the primary store.
func (svc *UserService) Get(ctx context.Context, userID uuid.UUID) (*models.PublicUser, error) {
	if svc.cache != nil {
		cached, err := svc.cache.Get(ctx, userID)
		if err != nil {
			logger.Log.Errorw("user cache read failed", "err", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := svc.reader.GetByID(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	public := user.Public()

	if svc.cache != nil {
		if err := svc.cache.Set(ctx, public); err != nil {
			logger.Log.Errorw("user cache write failed", "err", err)
		}
	}

	return public, nil
}
