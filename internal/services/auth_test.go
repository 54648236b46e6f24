package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-auth-service/internal/jwt"
	"github.com/sbilibin2017/gw-auth-service/internal/models"
	"github.com/sbilibin2017/gw-auth-service/internal/password"
	"github.com/sbilibin2017/gw-auth-service/internal/repositories"
	"github.com/sbilibin2017/gw-auth-service/internal/services"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hasher := password.New(bcrypt.MinCost)
	userID := uuid.New()

	tests := []struct {
		name         string
		email        string
		password     string
		lookupEmail  string
		existingUser *models.UserDB
		readerErr    error
		writerErr    error
		skipLookup   bool
		skipWrite    bool
		wantErr      error
	}{
		{
			name:        "successful registration",
			email:       "alice@example.com",
			password:    "Passw0rd!",
			lookupEmail: "alice@example.com",
		},
		{
			name:        "email is normalized before lookup and save",
			email:       "  Bob@Example.COM ",
			password:    "Passw0rd!",
			lookupEmail: "bob@example.com",
		},
		{
			name:       "empty email",
			email:      "   ",
			password:   "Passw0rd!",
			skipLookup: true,
			skipWrite:  true,
			wantErr:    services.ErrEmptyCredentials,
		},
		{
			name:       "empty password",
			email:      "carol@example.com",
			skipLookup: true,
			skipWrite:  true,
			wantErr:    services.ErrEmptyCredentials,
		},
		{
			name:         "user already exists",
			email:        "dave@example.com",
			password:     "Passw0rd!",
			lookupEmail:  "dave@example.com",
			existingUser: &models.UserDB{UserID: userID},
			skipWrite:    true,
			wantErr:      services.ErrEmailAlreadyExists,
		},
		{
			name:        "lost race maps unique violation to duplicate error",
			email:       "eve@example.com",
			password:    "Passw0rd!",
			lookupEmail: "eve@example.com",
			writerErr:   repositories.ErrEmailTaken,
			wantErr:     services.ErrEmailAlreadyExists,
		},
		{
			name:        "reader error",
			email:       "frank@example.com",
			password:    "Passw0rd!",
			lookupEmail: "frank@example.com",
			readerErr:   errors.New("db error"),
			skipWrite:   true,
			wantErr:     errors.New("db error"),
		},
		{
			name:        "writer error",
			email:       "grace@example.com",
			password:    "Passw0rd!",
			lookupEmail: "grace@example.com",
			writerErr:   errors.New("save error"),
			wantErr:     errors.New("save error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReader := services.NewMockUserReader(ctrl)
			mockWriter := services.NewMockUserWriter(ctrl)
			mockTokens := services.NewMockTokenIssuer(ctrl)

			if !tt.skipLookup {
				mockReader.EXPECT().
					GetByEmail(gomock.Any(), tt.lookupEmail).
					Return(tt.existingUser, tt.readerErr)
			}

			if !tt.skipWrite {
				saved := &models.UserDB{
					UserID:    userID,
					Email:     tt.lookupEmail,
					CreatedAt: time.Now(),
					UpdatedAt: time.Now(),
				}
				if tt.writerErr != nil {
					saved = nil
				}
				mockWriter.EXPECT().
					Save(gomock.Any(), tt.lookupEmail, gomock.Any(), gomock.Nil(), gomock.Nil()).
					Return(saved, tt.writerErr)
			}

			svc := services.NewAuthService(mockReader, mockWriter, hasher, mockTokens, nil)

			user, err := svc.Register(context.Background(), tt.email, tt.password, nil, nil)
			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.lookupEmail, user.Email)
				assert.Equal(t, userID, user.UserID)
			}
		})
	}
}

func TestAuthService_Register_PasswordNeverStoredPlain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)
	mockTokens := services.NewMockTokenIssuer(ctrl)
	hasher := password.New(bcrypt.MinCost)

	mockReader.EXPECT().
		GetByEmail(gomock.Any(), "alice@example.com").
		Return(nil, nil)

	var storedHash string
	mockWriter.EXPECT().
		Save(gomock.Any(), "alice@example.com", gomock.Any(), gomock.Nil(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, email, passwordHash string, _, _ *string) (*models.UserDB, error) {
			storedHash = passwordHash
			return &models.UserDB{UserID: uuid.New(), Email: email, PasswordHash: passwordHash}, nil
		})

	svc := services.NewAuthService(mockReader, mockWriter, hasher, mockTokens, nil)

	_, err := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", nil, nil)
	assert.NoError(t, err)

	assert.NotEqual(t, "Passw0rd!", storedHash)
	ok, err := hasher.Verify("Passw0rd!", storedHash)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthService_Register_HasherError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)
	mockTokens := services.NewMockTokenIssuer(ctrl)
	mockHasher := services.NewMockPasswordHasher(ctrl)

	mockReader.EXPECT().
		GetByEmail(gomock.Any(), "alice@example.com").
		Return(nil, nil)
	mockHasher.EXPECT().
		Hash("Passw0rd!").
		Return("", errors.New("entropy source unavailable"))

	svc := services.NewAuthService(mockReader, mockWriter, mockHasher, mockTokens, nil)

	user, err := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", nil, nil)
	assert.EqualError(t, err, "entropy source unavailable")
	assert.Nil(t, user)
}

func TestAuthService_Register_PublishesEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)
	mockTokens := services.NewMockTokenIssuer(ctrl)
	mockEvents := services.NewMockEventPublisher(ctrl)
	hasher := password.New(bcrypt.MinCost)

	userID := uuid.New()

	mockReader.EXPECT().
		GetByEmail(gomock.Any(), "alice@example.com").
		Return(nil, nil)
	mockWriter.EXPECT().
		Save(gomock.Any(), "alice@example.com", gomock.Any(), gomock.Nil(), gomock.Nil()).
		Return(&models.UserDB{UserID: userID, Email: "alice@example.com"}, nil)
	mockEvents.EXPECT().
		WriteMessages(gomock.Any(), gomock.Any()).
		Return(nil)

	svc := services.NewAuthService(mockReader, mockWriter, hasher, mockTokens, mockEvents)

	user, err := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, userID, user.UserID)
}

func TestAuthService_Register_PublishFailureDoesNotFailRegistration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)
	mockTokens := services.NewMockTokenIssuer(ctrl)
	mockEvents := services.NewMockEventPublisher(ctrl)
	hasher := password.New(bcrypt.MinCost)

	mockReader.EXPECT().
		GetByEmail(gomock.Any(), "alice@example.com").
		Return(nil, nil)
	mockWriter.EXPECT().
		Save(gomock.Any(), "alice@example.com", gomock.Any(), gomock.Nil(), gomock.Nil()).
		Return(&models.UserDB{UserID: uuid.New(), Email: "alice@example.com"}, nil)
	mockEvents.EXPECT().
		WriteMessages(gomock.Any(), gomock.Any()).
		Return(errors.New("broker unavailable"))

	svc := services.NewAuthService(mockReader, mockWriter, hasher, mockTokens, mockEvents)

	user, err := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", nil, nil)
	assert.NoError(t, err)
	assert.NotNil(t, user)
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hasher := password.New(bcrypt.MinCost)
	hash, err := hasher.Hash("Passw0rd!")
	assert.NoError(t, err)

	userID := uuid.New()

	tests := []struct {
		name       string
		email      string
		loginPass  string
		user       *models.UserDB
		readerErr  error
		tokenErr   error
		skipLookup bool
		expectJWT  string
		wantErr    error
	}{
		{
			name:      "successful login",
			email:     "alice@example.com",
			loginPass: "Passw0rd!",
			user:      &models.UserDB{UserID: userID, Email: "alice@example.com", PasswordHash: hash},
			expectJWT: "token123",
		},
		{
			name:       "empty email",
			loginPass:  "Passw0rd!",
			skipLookup: true,
			wantErr:    services.ErrInvalidCredentials,
		},
		{
			name:       "empty password",
			email:      "alice@example.com",
			skipLookup: true,
			wantErr:    services.ErrInvalidCredentials,
		},
		{
			name:      "unknown email",
			email:     "ghost@example.com",
			loginPass: "Passw0rd!",
			user:      nil,
			wantErr:   services.ErrInvalidCredentials,
		},
		{
			name:      "wrong password",
			email:     "alice@example.com",
			loginPass: "wrongpass",
			user:      &models.UserDB{UserID: userID, Email: "alice@example.com", PasswordHash: hash},
			wantErr:   services.ErrInvalidCredentials,
		},
		{
			name:      "reader error",
			email:     "alice@example.com",
			loginPass: "Passw0rd!",
			readerErr: errors.New("db error"),
			wantErr:   errors.New("db error"),
		},
		{
			name:      "token generation error",
			email:     "alice@example.com",
			loginPass: "Passw0rd!",
			user:      &models.UserDB{UserID: userID, Email: "alice@example.com", PasswordHash: hash},
			tokenErr:  errors.New("jwt error"),
			wantErr:   errors.New("jwt error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReader := services.NewMockUserReader(ctrl)
			mockWriter := services.NewMockUserWriter(ctrl)
			mockTokens := services.NewMockTokenIssuer(ctrl)

			if !tt.skipLookup {
				mockReader.EXPECT().
					GetByEmail(gomock.Any(), tt.email).
					Return(tt.user, tt.readerErr)
			}

			if tt.user != nil && tt.readerErr == nil && tt.loginPass == "Passw0rd!" {
				mockTokens.EXPECT().
					Generate(gomock.Any(), tt.user.UserID, tt.user.Email).
					Return(tt.expectJWT, tt.tokenErr)
			}

			svc := services.NewAuthService(mockReader, mockWriter, hasher, mockTokens, nil)

			user, token, err := svc.Login(context.Background(), tt.email, tt.loginPass)
			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				assert.Nil(t, user)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectJWT, token)
				assert.Equal(t, tt.user.UserID, user.UserID)
			}
		})
	}
}

func TestAuthService_Login_UnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hasher := password.New(bcrypt.MinCost)
	hash, _ := hasher.Hash("Passw0rd!")

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)
	mockTokens := services.NewMockTokenIssuer(ctrl)

	mockReader.EXPECT().
		GetByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, nil)
	mockReader.EXPECT().
		GetByEmail(gomock.Any(), "alice@example.com").
		Return(&models.UserDB{UserID: uuid.New(), Email: "alice@example.com", PasswordHash: hash}, nil)

	svc := services.NewAuthService(mockReader, mockWriter, hasher, mockTokens, nil)

	_, _, errUnknown := svc.Login(context.Background(), "ghost@example.com", "Passw0rd!")
	_, _, errWrongPass := svc.Login(context.Background(), "alice@example.com", "wrongpass")

	assert.ErrorIs(t, errUnknown, services.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPass, services.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestAuthService_VerifyToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()

	tests := []struct {
		name      string
		claims    *jwt.Claims
		codecErr  error
		wantErr   error
		wantValid bool
	}{
		{
			name:      "valid token",
			claims:    &jwt.Claims{UserID: userID, Email: "alice@example.com"},
			wantValid: true,
		},
		{
			name:     "expired token",
			codecErr: jwt.ErrTokenExpired,
			wantErr:  services.ErrInvalidToken,
		},
		{
			name:     "forged token",
			codecErr: jwt.ErrTokenInvalid,
			wantErr:  services.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReader := services.NewMockUserReader(ctrl)
			mockWriter := services.NewMockUserWriter(ctrl)
			mockTokens := services.NewMockTokenIssuer(ctrl)
			hasher := password.New(bcrypt.MinCost)

			mockTokens.EXPECT().
				GetClaims(gomock.Any(), "sometoken").
				Return(tt.claims, tt.codecErr)

			svc := services.NewAuthService(mockReader, mockWriter, hasher, mockTokens, nil)

			claims, err := svc.VerifyToken(context.Background(), "sometoken")
			if tt.wantValid {
				assert.NoError(t, err)
				assert.Equal(t, userID, claims.UserID)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
			}
		})
	}
}

func TestAuthService_EndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// In-memory store backed by mocks
	store := map[string]*models.UserDB{}

	mockReader := services.NewMockUserReader(ctrl)
	mockReader.EXPECT().
		GetByEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, email string) (*models.UserDB, error) {
			return store[email], nil
		}).
		AnyTimes()

	mockWriter := services.NewMockUserWriter(ctrl)
	mockWriter.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, email, passwordHash string, firstName, lastName *string) (*models.UserDB, error) {
			if _, ok := store[email]; ok {
				return nil, repositories.ErrEmailTaken
			}
			user := &models.UserDB{
				UserID:       uuid.New(),
				Email:        email,
				PasswordHash: passwordHash,
				FirstName:    firstName,
				LastName:     lastName,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}
			store[email] = user
			return user, nil
		}).
		AnyTimes()

	hasher := password.New(bcrypt.MinCost)
	codec := jwt.New(jwt.WithSecretKey("test-secret"), jwt.WithExpiration(time.Minute))

	svc := services.NewAuthService(mockReader, mockWriter, hasher, codec, nil)
	ctx := context.Background()

	// Register
	registered, err := svc.Register(ctx, "a@x.com", "Passw0rd!", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, "a@x.com", registered.Email)

	// Registering the same email again fails
	_, err = svc.Register(ctx, "a@x.com", "Passw0rd!", nil, nil)
	assert.ErrorIs(t, err, services.ErrEmailAlreadyExists)

	// Login and verify the issued token resolves to the same identity
	loggedIn, token, err := svc.Login(ctx, "a@x.com", "Passw0rd!")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, registered.UserID, loggedIn.UserID)

	claims, err := svc.VerifyToken(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, registered.UserID, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)

	// Wrong password fails like an unknown email would
	_, _, err = svc.Login(ctx, "a@x.com", "wrongpass")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

// Expired and forged tokens must be externally indistinguishable.
func TestAuthService_VerifyToken_RejectionsCollapse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)
	mockTokens := services.NewMockTokenIssuer(ctrl)
	hasher := password.New(bcrypt.MinCost)

	mockTokens.EXPECT().GetClaims(gomock.Any(), "expired").Return(nil, jwt.ErrTokenExpired)
	mockTokens.EXPECT().GetClaims(gomock.Any(), "forged").Return(nil, jwt.ErrTokenInvalid)

	svc := services.NewAuthService(mockReader, mockWriter, hasher, mockTokens, nil)

	_, errExpired := svc.VerifyToken(context.Background(), "expired")
	_, errForged := svc.VerifyToken(context.Background(), "forged")

	assert.Equal(t, errExpired, errForged)
}
