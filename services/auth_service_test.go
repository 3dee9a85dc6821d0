package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/esports-admin/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role models.UserRole) *models.User {
	t.Helper()
	user, err := NewUserService(repo).CreateUser(context.Background(), CreateUserInput{
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_LoginAndParse(t *testing.T) {
	repo := newFakeUserRepo()
	seeded := seedUser(t, repo, "admin@example.com", "correct-horse", models.RoleAdmin)
	svc := NewAuthService(repo, testSecret, time.Hour)

	user, token, err := svc.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	assert.Empty(t, user.PasswordHash)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthService_LoginRejects(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "user@example.com", "correct-horse", models.RoleUser)
	svc := NewAuthService(repo, testSecret, time.Hour)
	ctx := context.Background()

	for name, input := range map[string]LoginInput{
		"wrong password": {Email: "user@example.com", Password: "battery-staple"},
		"unknown email":  {Email: "nobody@example.com", Password: "correct-horse"},
		"empty":          {},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, input)
			assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
		})
	}
}

func TestAuthService_ParseToken_Invalid(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testSecret, time.Hour).(*authService)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	expiredToken, err := expired.SignedString(testSecret)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1}).SignedString([]byte("other"))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}).SignedString(testSecret)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":       expiredToken,
		"wrong secret":  foreign,
		"missing claim": noUser,
		"alg none":      unsigned,
		"garbage":       "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(token)
			assert.ErrorIs(t, err, ErrAuthInvalidToken)
		})
	}
}

func TestAuthService_TokenExpiresAfterTTL(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "user@example.com", "correct-horse", models.RoleUser)
	svc := NewAuthService(repo, testSecret, time.Minute).(*authService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	_, token, err := svc.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrAuthInvalidToken)
}
