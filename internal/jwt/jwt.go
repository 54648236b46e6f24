package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Rejection reasons. Handlers and middleware collapse both into a single
// externally visible outcome; the distinction exists for logging.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims carries the identity encoded in a token.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// JWT provides methods to generate and validate JWT tokens.
type JWT struct {
	secretKey []byte
	exp       time.Duration
}

// Option configures a JWT instance.
type Option func(*JWT)

// WithSecretKey sets the HMAC signing secret.
func WithSecretKey(secret string) Option {
	return func(j *JWT) {
		j.secretKey = []byte(secret)
	}
}

// WithExpiration sets the token validity window.
func WithExpiration(exp time.Duration) Option {
	return func(j *JWT) {
		j.exp = exp
	}
}

// New creates a new JWT instance.
func New(opts ...Option) *JWT {
	j := &JWT{
		exp: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Generate creates a signed HS256 token for the given user.
func (j *JWT) Generate(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.exp)),
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// GetClaims parses and validates the token string and returns its claims.
// An expired token yields ErrTokenExpired; any other failure, including a
// forged or malformed signature, yields ErrTokenInvalid.
func (j *JWT) GetClaims(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Validate checks the token signature and expiry.
func (j *JWT) Validate(ctx context.Context, tokenString string) error {
	_, err := j.GetClaims(ctx, tokenString)
	return err
}

// GetTokenFromRequest extracts the token string from the Authorization header
func (j *JWT) GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
