package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRegisteredEvent is published to Kafka after a successful registration.
type UserRegisteredEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
