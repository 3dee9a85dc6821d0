package models

import (
	"encoding/json"
	"time"
)

// Tournament carries the bracket data the admin backend owns for a tournament.
// Everything else about a tournament lives in the content backend.
type Tournament struct {
	ID          int             `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	BracketType BracketType     `json:"bracket_type" db:"bracket_type"`
	TeamCount   int             `json:"team_count" db:"team_count"`
	Config      BracketConfig   `json:"config" db:"bracket_config"`
	State       json.RawMessage `json:"state,omitempty" db:"bracket_state"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Progress is the completed/total tally of a bracket.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Percent returns the completion percentage. ok is false when there is nothing to show.
func (p Progress) Percent() (pct float64, ok bool) {
	if p.Total <= 0 {
		return 0, false
	}
	return float64(p.Completed) * 100 / float64(p.Total), true
}

func (p Progress) Add(o Progress) Progress {
	return Progress{Total: p.Total + o.Total, Completed: p.Completed + o.Completed}
}
