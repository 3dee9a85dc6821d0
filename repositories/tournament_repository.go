package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-admin/models"
	"github.com/lib/pq"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	ListByIDs(ctx context.Context, ids []int) ([]models.Tournament, error)
	UpdateBracketConfig(ctx context.Context, id int, bracketType models.BracketType, teamCount int, cfg models.BracketConfig) error
	UpdateBracketState(ctx context.Context, id int, state json.RawMessage) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, bracket_type, team_count, bracket_config, bracket_state, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var (
		t         models.Tournament
		rawConfig []byte
		rawState  []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &t.BracketType, &t.TeamCount, &rawConfig, &rawState, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &t.Config); err != nil {
			return nil, fmt.Errorf("tournament %d has invalid bracket_config: %w", t.ID, err)
		}
	}
	if len(rawState) > 0 {
		t.State = json.RawMessage(rawState)
	}
	return &t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) ListByIDs(ctx context.Context, ids []int) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = ANY($1) ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0, len(ids))
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateBracketConfig(ctx context.Context, id int, bracketType models.BracketType, teamCount int, cfg models.BracketConfig) error {
	rawConfig, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode bracket config: %w", err)
	}

	query := `
		UPDATE tournaments
		SET bracket_type = $1, team_count = $2, bracket_config = $3, updated_at = now()
		WHERE id = $4`
	// jsonb parameters go as text; pq would send []byte as bytea
	result, err := r.db.ExecContext(ctx, query, bracketType, teamCount, string(rawConfig), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBracketState(ctx context.Context, id int, state json.RawMessage) error {
	var value sql.NullString
	if len(state) > 0 {
		value = sql.NullString{String: string(state), Valid: true}
	}

	query := `UPDATE tournaments SET bracket_state = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
