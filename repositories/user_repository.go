package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-admin/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	CreateWithPermissions(ctx context.Context, user *models.User, records []models.PermissionRecord) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListPermissions(ctx context.Context, userID int) ([]models.PermissionRecord, error)
	ReplacePermissions(ctx context.Context, userID int, records []models.PermissionRecord) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// CreateWithPermissions inserts the user and its permission records in one transaction.
func (r *postgresUserRepository) CreateWithPermissions(ctx context.Context, user *models.User, records []models.PermissionRecord) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO users (email, password_hash, role)
			VALUES ($1, $2, $3)
			RETURNING id, created_at`
		err := tx.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Role).Scan(&user.ID, &user.CreatedAt)
		if err != nil {
			if pqErrorIs(err, pqUniqueViolation, "users_email_key") {
				return ErrUserEmailConflict
			}
			return err
		}
		return insertPermissions(ctx, tx, user.ID, records)
	})
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, email, password_hash, role, created_at FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, role, created_at FROM users WHERE lower(email) = lower($1)`
	return r.getOne(ctx, query, email)
}

func (r *postgresUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *postgresUserRepository) ListPermissions(ctx context.Context, userID int) ([]models.PermissionRecord, error) {
	query := `SELECT entity, actions FROM user_permissions WHERE user_id = $1 ORDER BY entity ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.PermissionRecord, 0)
	for rows.Next() {
		var (
			rec     models.PermissionRecord
			actions []string
		)
		if scanErr := rows.Scan(&rec.Entity, pq.Array(&actions)); scanErr != nil {
			return nil, scanErr
		}
		rec.Actions = make([]models.Action, len(actions))
		for i, a := range actions {
			rec.Actions[i] = models.Action(a)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ReplacePermissions swaps the whole permission set of a user in one transaction.
func (r *postgresUserRepository) ReplacePermissions(ctx context.Context, userID int, records []models.PermissionRecord) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_permissions WHERE user_id = $1`, userID); err != nil {
			return err
		}
		return insertPermissions(ctx, tx, userID, records)
	})
}

func (r *postgresUserRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (txErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				txErr = fmt.Errorf("%w (rollback also failed: %v)", txErr, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(tx)
}

func insertPermissions(ctx context.Context, tx *sql.Tx, userID int, records []models.PermissionRecord) error {
	insert := `INSERT INTO user_permissions (user_id, entity, actions) VALUES ($1, $2, $3)`
	for _, rec := range records {
		actions := make([]string, len(rec.Actions))
		for i, a := range rec.Actions {
			actions[i] = string(a)
		}
		if _, err := tx.ExecContext(ctx, insert, userID, rec.Entity, pq.Array(actions)); err != nil {
			if pqErrorIs(err, pqForeignKeyViolation, "") {
				return ErrUserNotFound
			}
			return err
		}
	}
	return nil
}
