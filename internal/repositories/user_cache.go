package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-auth-service/internal/logger"
	"github.com/sbilibin2017/gw-auth-service/internal/models"
)

// UserCacheRepository caches public user profiles in Redis.
// Only the public view is ever cached; the password hash never leaves
// the primary store. Staleness is bounded by the configured TTL.
type UserCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration duration for cached profiles
}

// NewUserCacheRepository creates a new repository instance with the given TTL.
func NewUserCacheRepository(client *redis.Client, expiration time.Duration) *UserCacheRepository {
	return &UserCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func userKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID)
}

// Get fetches a cached profile. A cache miss returns (nil, nil).
func (r *UserCacheRepository) Get(ctx context.Context, userID uuid.UUID) (*models.PublicUser, error) {
	key := userKey(userID)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		logger.Log.Infow(
			"key", key,
			"error", err,
		)
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var user models.PublicUser
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		logger.Log.Infow(
			"key", key,
			"value", val,
			"error", err,
		)
		return nil, err
	}

	logger.Log.Infow(
		"key", key,
		"result", user,
		"error", nil,
	)

	return &user, nil
}

// Set caches a profile with the repository's expiration.
func (r *UserCacheRepository) Set(ctx context.Context, user *models.PublicUser) error {
	key := userKey(user.UserID)

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, key, data, r.exp).Err()

	logger.Log.Infow(
		"key", key,
		"result", "ok",
		"error", err,
	)

	return err
}
