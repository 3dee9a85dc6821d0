package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCanceled   MatchStatus = "canceled"
)

// ParticipantID is a team or player id. The dashboard backend emits both numeric and
// string ids, so both decode into the same textual form.
type ParticipantID string

func (id *ParticipantID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ParticipantID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("participant id must be a string or number: %w", err)
	}
	*id = ParticipantID(n.String())
	return nil
}

// Set reports whether the id refers to someone. Empty and "0" ids are placeholders.
func (id ParticipantID) Set() bool {
	return id != "" && id != "0"
}

func ParticipantIDFromInt(n int) ParticipantID {
	return ParticipantID(strconv.Itoa(n))
}

// Winner keeps result.winner as sent: an id, a team object or a plain flag.
type Winner json.RawMessage

func (w *Winner) UnmarshalJSON(data []byte) error {
	*w = append((*w)[:0], data...)
	return nil
}

func (w Winner) MarshalJSON() ([]byte, error) {
	if len(w) == 0 {
		return []byte("null"), nil
	}
	return w, nil
}

// Set reports whether a winner has been recorded. null, false, empty strings and the
// placeholder ids 0 and "0" mean nobody won yet; any other value, objects included, does.
func (w Winner) Set() bool {
	data := bytes.TrimSpace(w)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		return false
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return false
		}
		return ParticipantID(s).Set()
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		f, err := strconv.ParseFloat(string(data), 64)
		return err != nil || f != 0
	}
	return true
}

type MatchResult struct {
	Winner *Winner         `json:"winner,omitempty"`
	Score  json.RawMessage `json:"score,omitempty"`
}

type MatchParticipant struct {
	ID        ParticipantID `json:"id"`
	Placement *int          `json:"placement,omitempty"`
}

type Match struct {
	ID           string             `json:"id,omitempty"`
	Status       MatchStatus        `json:"status"`
	Participant1 *ParticipantID     `json:"participant1,omitempty"`
	Participant2 *ParticipantID     `json:"participant2,omitempty"`
	SourceMatch1 string             `json:"sourceMatch1,omitempty"`
	SourceMatch2 string             `json:"sourceMatch2,omitempty"`
	Result       *MatchResult       `json:"result,omitempty"`
	Participants []MatchParticipant `json:"participants,omitempty"`
	BestOf       int                `json:"bestOf,omitempty"`
}

// HasWinner reports whether a winner has been recorded.
func (m Match) HasWinner() bool {
	return m.Result != nil && m.Result.Winner != nil && m.Result.Winner.Set()
}

// Completed is the completion rule shared by every topology.
func (m Match) Completed() bool {
	return m.Status == MatchStatusCompleted || m.HasWinner()
}

// LobbyCompleted extends Completed for battle-royale lobbies, which carry placements
// instead of a single winner.
func (m Match) LobbyCompleted() bool {
	if m.Completed() {
		return true
	}
	for _, p := range m.Participants {
		if p.Placement != nil {
			return true
		}
	}
	return false
}

// Round is an ordered set of matches played in parallel.
type Round struct {
	Number  int     `json:"round,omitempty"`
	Matches []Match `json:"matches"`
}
