package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/esports-admin/models"
	"github.com/Dosada05/esports-admin/repositories"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
	ParseToken(tokenString string) (*TokenClaims, error)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenClaims is what a verified session token says about its bearer.
type TokenClaims struct {
	UserID int
	Role   models.UserRole
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret []byte, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, "", ErrAuthInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", ErrAuthInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrAuthInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to compare password hash: %w", err)
	}
	user.PasswordHash = ""

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) issueToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		jwtClaimUserID: user.ID,
		jwtClaimRole:   string(user.Role),
		"exp":          now.Add(s.tokenTTL).Unix(),
		"iat":          now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ParseToken verifies an HS256 token and extracts the user id and role. Expired tokens,
// foreign signing methods and malformed claims all yield ErrAuthInvalidToken.
func (s *authService) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthInvalidToken, err)
	}

	// numbers come back from the token as float64
	rawID, ok := claims[jwtClaimUserID].(float64)
	if !ok || rawID <= 0 || rawID != float64(int(rawID)) {
		return nil, fmt.Errorf("%w: bad %s claim", ErrAuthInvalidToken, jwtClaimUserID)
	}
	role, _ := claims[jwtClaimRole].(string)

	return &TokenClaims{UserID: int(rawID), Role: models.UserRole(role)}, nil
}
