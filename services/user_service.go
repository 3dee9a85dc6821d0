package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/esports-admin/models"
	"github.com/Dosada05/esports-admin/permissions"
	"github.com/Dosada05/esports-admin/repositories"
	"github.com/badoux/checkmail"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const minPasswordLength = 8

type UserService interface {
	GetUser(ctx context.Context, userID int) (*models.User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	SetPermissions(ctx context.Context, userID int, records []models.PermissionRecord) ([]models.PermissionRecord, error)
	LoadEngine(ctx context.Context, userID int) (*permissions.Engine, error)
}

type CreateUserInput struct {
	Email       string                    `json:"email"`
	Password    string                    `json:"password"`
	Role        models.UserRole           `json:"role"`
	Permissions []models.PermissionRecord `json:"permissions"`
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func mapUserRepoError(err error, userID int) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("failed to load user %d: %w", userID, err)
}

// loadUser fetches the user row and the permission records concurrently.
func (s *userService) loadUser(ctx context.Context, userID int) (*models.User, error) {
	var (
		user    *models.User
		records []models.PermissionRecord
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.userRepo.GetByID(gCtx, userID)
		if err != nil {
			return mapUserRepoError(err, userID)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		r, err := s.userRepo.ListPermissions(gCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to load permissions of user %d: %w", userID, err)
		}
		records = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	user.Permissions = records
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID int) (*models.User, error) {
	return s.loadUser(ctx, userID)
}

func (s *userService) LoadEngine(ctx context.Context, userID int) (*permissions.Engine, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return permissions.ForUser(user), nil
}

func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, input.Role)
	}

	records, err := NormalizePermissions(input.Permissions)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := s.userRepo.CreateWithPermissions(ctx, user, records); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	user.Permissions = records
	return user, nil
}

func (s *userService) SetPermissions(ctx context.Context, userID int, records []models.PermissionRecord) ([]models.PermissionRecord, error) {
	normalized, err := NormalizePermissions(records)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, mapUserRepoError(err, userID)
	}

	if err := s.userRepo.ReplacePermissions(ctx, userID, normalized); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to store permissions of user %d: %w", userID, err)
	}
	return normalized, nil
}

var actionOrder = map[models.Action]int{
	models.ActionCreate: 0,
	models.ActionRead:   1,
	models.ActionUpdate: 2,
	models.ActionDelete: 3,
}

// NormalizePermissions validates records before they are stored: entities are trimmed and
// must be non-empty, actions must be CRUD verbs. Records naming the same entity are merged
// and actions come back deduplicated in create/read/update/delete order. The result is
// sorted by entity.
func NormalizePermissions(records []models.PermissionRecord) ([]models.PermissionRecord, error) {
	merged := make(map[string]map[models.Action]bool, len(records))
	for i, rec := range records {
		entity := strings.TrimSpace(rec.Entity)
		if entity == "" {
			return nil, fmt.Errorf("%w: permission %d has an empty entity", ErrValidationFailed, i+1)
		}
		set, ok := merged[entity]
		if !ok {
			set = make(map[models.Action]bool, 4)
			merged[entity] = set
		}
		for _, a := range rec.Actions {
			a = models.Action(strings.ToLower(strings.TrimSpace(string(a))))
			if !a.Valid() {
				return nil, fmt.Errorf("%w: %q on %s", ErrInvalidAction, a, entity)
			}
			set[a] = true
		}
	}

	out := make([]models.PermissionRecord, 0, len(merged))
	for entity, set := range merged {
		actions := make([]models.Action, 0, len(set))
		for a := range set {
			actions = append(actions, a)
		}
		sort.Slice(actions, func(i, j int) bool { return actionOrder[actions[i]] < actionOrder[actions[j]] })
		out = append(out, models.PermissionRecord{Entity: entity, Actions: actions})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out, nil
}
