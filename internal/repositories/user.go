package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-auth-service/internal/logger"
	"github.com/sbilibin2017/gw-auth-service/internal/models"
)

// ErrEmailTaken is returned when an insert hits the email unique constraint.
// The constraint, not the prior lookup, is what guarantees exactly one winner
// under concurrent registration of the same email.
var ErrEmailTaken = errors.New("email already taken")

type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// GetByEmail returns the user with the given email, or nil if none exists.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	const query = `
		SELECT user_id, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, email)

	// Log with query in single line
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{email},
		"error", err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetByID returns the user with the given ID, or nil if none exists.
func (r *UserReadRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error) {
	const query = `
		SELECT user_id, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, userID)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{userID},
		"error", err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

type UserWriteRepository struct {
	db *sqlx.DB
}

func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Save inserts a new user and returns the stored record.
// A duplicate email is reported as ErrEmailTaken.
func (r *UserWriteRepository) Save(ctx context.Context, email, passwordHash string, firstName, lastName *string) (*models.UserDB, error) {
	const query = `
		INSERT INTO users (user_id, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING user_id, email, password_hash, first_name, last_name, created_at, updated_at
	`
	args := []any{uuid.New(), email, passwordHash, firstName, lastName}

	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, args...)

	// Log with query in single line, never the hash itself
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"email", email,
		"error", err,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return &user, nil
}
