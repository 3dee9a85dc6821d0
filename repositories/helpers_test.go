package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckAffectedRows(t *testing.T) {
	assert.NoError(t, checkAffectedRows(fakeResult{rows: 1}, ErrTournamentNotFound))
	assert.ErrorIs(t, checkAffectedRows(fakeResult{rows: 0}, ErrTournamentNotFound), ErrTournamentNotFound)

	err := checkAffectedRows(fakeResult{err: errors.New("driver gone")}, ErrTournamentNotFound)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTournamentNotFound)
}

func TestPqErrorIs(t *testing.T) {
	unique := &pq.Error{Code: pqUniqueViolation, Constraint: "users_email_key"}
	wrapped := fmt.Errorf("insert user: %w", unique)

	assert.True(t, pqErrorIs(wrapped, pqUniqueViolation, "users_email_key"))
	assert.True(t, pqErrorIs(unique, pqUniqueViolation, ""))
	assert.False(t, pqErrorIs(unique, pqUniqueViolation, "other_key"))
	assert.False(t, pqErrorIs(unique, pqForeignKeyViolation, ""))
	assert.False(t, pqErrorIs(errors.New("plain"), pqUniqueViolation, ""))
}
