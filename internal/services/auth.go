package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-auth-service/internal/jwt"
	"github.com/sbilibin2017/gw-auth-service/internal/logger"
	"github.com/sbilibin2017/gw-auth-service/internal/models"
	"github.com/sbilibin2017/gw-auth-service/internal/repositories"
	"github.com/segmentio/kafka-go"
)

// Error variables
var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmptyCredentials   = errors.New("email and password are required")
)

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, email, passwordHash string, firstName, lastName *string) (*models.UserDB, error)
}

// PasswordHasher defines password hashing and verification.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// TokenIssuer defines an interface for issuing and decoding tokens.
type TokenIssuer interface {
	Generate(ctx context.Context, userID uuid.UUID, email string) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// EventPublisher defines a Kafka writer abstraction.
type EventPublisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
}

// AuthService handles registration, login and token verification.
type AuthService struct {
	reader UserReader
	writer UserWriter
	hasher PasswordHasher
	tokens TokenIssuer
	events EventPublisher
}

// NewAuthService creates a new AuthService instance.
// events may be nil, in which case registration events are not published.
func NewAuthService(reader UserReader, writer UserWriter, hasher PasswordHasher, tokens TokenIssuer, events EventPublisher) *AuthService {
	return &AuthService{
		reader: reader,
		writer: writer,
		hasher: hasher,
		tokens: tokens,
		events: events,
	}
}

// normalizeEmail applies the single normalization policy: emails are
// trimmed and lowercased before every store lookup and write.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account and returns its public view.
// The pre-lookup gives a fast failure; the store's unique constraint is
// what wins a race between two concurrent registrations.
func (svc *AuthService) Register(ctx context.Context, email, password string, firstName, lastName *string) (*models.PublicUser, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	existing, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return nil, err
	}
	if existing != nil {
		logger.Log.Infow("user already exists", "email", email)
		return nil, ErrEmailAlreadyExists
	}

	passwordHash, err := svc.hasher.Hash(password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	user, err := svc.writer.Save(ctx, email, passwordHash, firstName, lastName)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			logger.Log.Infow("lost registration race", "email", email)
			return nil, ErrEmailAlreadyExists
		}
		logger.Log.Errorw("failed to save user", "err", err)
		return nil, err
	}

	svc.publishRegistered(ctx, user)

	return user.Public(), nil
}

// publishRegistered emits a UserRegisteredEvent. Publishing is best-effort:
// a broker failure is logged and does not fail the registration.
func (svc *AuthService) publishRegistered(ctx context.Context, user *models.UserDB) {
	if svc.events == nil {
		return
	}

	event := models.UserRegisteredEvent{
		UserID:    user.UserID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("failed to marshal registration event", "err", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(user.UserID.String()),
		Value: value,
	}
	if err := svc.events.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish registration event", "err", err)
	}
}

// Login authenticates a user and returns the public view plus a signed token.
// An unknown email and a wrong password are indistinguishable to the caller.
func (svc *AuthService) Login(ctx context.Context, email, password string) (*models.PublicUser, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return nil, "", err
	}
	if user == nil {
		logger.Log.Infow("login rejected", "reason", "unknown email")
		return nil, "", ErrInvalidCredentials
	}

	ok, err := svc.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		logger.Log.Errorw("failed to verify password", "err", err)
		return nil, "", err
	}
	if !ok {
		logger.Log.Infow("login rejected", "reason", "password mismatch")
		return nil, "", ErrInvalidCredentials
	}

	token, err := svc.tokens.Generate(ctx, user.UserID, user.Email)
	if err != nil {
		logger.Log.Errorw("failed to generate token", "err", err)
		return nil, "", err
	}

	return user.Public(), token, nil
}

// VerifyToken decodes and validates a presented token and returns its claims.
// The account is deliberately not re-checked against the store: a deleted
// account stays valid until its token expires, bounded by the configured TTL.
func (svc *AuthService) VerifyToken(ctx context.Context, tokenString string) (*jwt.Claims, error) {
	claims, err := svc.tokens.GetClaims(ctx, tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Log.Infow("token rejected", "reason", "expired")
		} else {
			logger.Log.Infow("token rejected", "reason", "invalid")
		}
		return nil, ErrInvalidToken
	}

	return claims, nil
}
