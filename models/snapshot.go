package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is the live state of a bracket. It is one of MultiStageSnapshot,
// CustomSnapshot or SingleStageSnapshot.
type Snapshot interface {
	snapshot()
}

// MultiStageSnapshot is a tournament made of independently generated stages.
type MultiStageSnapshot struct {
	Stages []StageSnapshot `json:"stages"`
}

type StageSnapshot struct {
	Name        string             `json:"name,omitempty"`
	BracketType BracketType        `json:"bracketType,omitempty"`
	IsGenerated bool               `json:"isGenerated"`
	Groups      []GroupRounds      `json:"groups,omitempty"`
	SwissRounds []Round            `json:"swissRounds,omitempty"`
	Rounds      *EliminationRounds `json:"rounds,omitempty"`
}

// CustomSnapshot is a caller-defined bracket stored as a flat match list.
type CustomSnapshot struct {
	Matches []Match `json:"matches"`
}

// SingleStageSnapshot covers every non-custom single stage bracket. Real data only fills
// one of the round sets, but nothing prevents several from being present.
type SingleStageSnapshot struct {
	BracketType        BracketType        `json:"bracketType,omitempty"`
	Groups             []GroupRounds      `json:"groups,omitempty"`
	SwissRounds        []Round            `json:"swissRounds,omitempty"`
	BattleRoyaleRounds []Round            `json:"battleRoyaleRounds,omitempty"`
	Rounds             *EliminationRounds `json:"rounds,omitempty"`
}

func (MultiStageSnapshot) snapshot()  {}
func (CustomSnapshot) snapshot()      {}
func (SingleStageSnapshot) snapshot() {}

type GroupRounds struct {
	Name    string          `json:"name,omitempty"`
	TeamIDs []ParticipantID `json:"teamIds,omitempty"`
	Rounds  []Round         `json:"rounds"`
}

// EliminationRounds is either the winners/losers/grand finals object of an elimination
// bracket or, in older data, a plain list of rounds (kept in List).
type EliminationRounds struct {
	Winners     []Round `json:"winners,omitempty"`
	Losers      []Round `json:"losers,omitempty"`
	GrandFinals []Match `json:"grandFinals,omitempty"`
	List        []Round `json:"-"`
}

type eliminationRoundsObject struct {
	Winners     []Round `json:"winners,omitempty"`
	Losers      []Round `json:"losers,omitempty"`
	GrandFinals []Match `json:"grandFinals,omitempty"`
}

func (r *EliminationRounds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []Round
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = EliminationRounds{List: list}
		return nil
	}
	var obj eliminationRoundsObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = EliminationRounds{Winners: obj.Winners, Losers: obj.Losers, GrandFinals: obj.GrandFinals}
	return nil
}

func (r EliminationRounds) MarshalJSON() ([]byte, error) {
	if r.List != nil && r.Winners == nil && r.Losers == nil && r.GrandFinals == nil {
		return json.Marshal(r.List)
	}
	return json.Marshal(eliminationRoundsObject{Winners: r.Winners, Losers: r.Losers, GrandFinals: r.GrandFinals})
}

func (s MultiStageSnapshot) MarshalJSON() ([]byte, error) {
	type alias MultiStageSnapshot
	return json.Marshal(struct {
		IsMultiStage bool `json:"isMultiStage"`
		alias
	}{true, alias(s)})
}

func (s CustomSnapshot) MarshalJSON() ([]byte, error) {
	type alias CustomSnapshot
	return json.Marshal(struct {
		BracketType BracketType `json:"bracketType"`
		alias
	}{BracketCustom, alias(s)})
}

type snapshotShape struct {
	IsMultiStage bool            `json:"isMultiStage"`
	Stages       json.RawMessage `json:"stages"`
	BracketType  BracketType     `json:"bracketType"`
}

// DecodeSnapshot picks the snapshot variant from the shape of the document: a multi-stage
// flag with stages, then a custom bracket type, otherwise a single stage. Empty input
// decodes to an empty single stage.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return SingleStageSnapshot{}, nil
	}

	var shape snapshotShape
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("invalid bracket snapshot: %w", err)
	}

	hasStages := len(shape.Stages) > 0 && !bytes.Equal(shape.Stages, []byte("null"))
	switch {
	case shape.IsMultiStage && hasStages:
		var s MultiStageSnapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("invalid multi-stage snapshot: %w", err)
		}
		return s, nil
	case shape.BracketType == BracketCustom:
		var s CustomSnapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("invalid custom snapshot: %w", err)
		}
		return s, nil
	default:
		var s SingleStageSnapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("invalid bracket snapshot: %w", err)
		}
		return s, nil
	}
}
