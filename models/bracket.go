package models

// BracketType names a bracket topology, e.g. "single_elimination".
type BracketType string

const (
	BracketSingleElimination BracketType = "single_elimination"
	BracketDoubleElimination BracketType = "double_elimination"
	BracketRoundRobin        BracketType = "round_robin"
	BracketSwiss             BracketType = "swiss"
	BracketBattleRoyale      BracketType = "battle_royale"
	BracketCustom            BracketType = "custom"
	BracketMultiStage        BracketType = "multi_stage"
)

// Known reports whether t is one of the supported topologies.
func (t BracketType) Known() bool {
	switch t {
	case BracketSingleElimination, BracketDoubleElimination, BracketRoundRobin,
		BracketSwiss, BracketBattleRoyale, BracketCustom, BracketMultiStage:
		return true
	}
	return false
}

// BracketConfig holds the recognized options of every topology. Optional values are
// pointers so that "absent" stays distinguishable from an explicit false.
type BracketConfig struct {
	BestOf           *int  `json:"bestOf,omitempty"`
	GrandFinalsReset *bool `json:"grandFinalsReset,omitempty"`
	AutoAdvance      *bool `json:"autoAdvance,omitempty"`

	Groups []Group `json:"groups,omitempty"`

	SwissConfig        *SwissConfig        `json:"swissConfig,omitempty"`
	BattleRoyaleConfig *BattleRoyaleConfig `json:"battleRoyaleConfig,omitempty"`

	CustomRounds *int `json:"customRounds,omitempty"`
	CustomBestOf *int `json:"customBestOf,omitempty"`

	Stages []Stage `json:"stages,omitempty"`
}

// Group is a round-robin pool.
type Group struct {
	Name    string          `json:"name,omitempty"`
	TeamIDs []ParticipantID `json:"teamIds"`
}

type SwissConfig struct {
	TotalRounds       int `json:"totalRounds"`
	WinsToQualify     int `json:"winsToQualify"`
	LossesToEliminate int `json:"lossesToEliminate"`
}

type BattleRoyaleConfig struct {
	TotalRounds   int `json:"totalRounds"`
	TeamsPerLobby int `json:"teamsPerLobby"`
}

// Stage is one phase of a multi-stage tournament.
type Stage struct {
	Name        string        `json:"name,omitempty"`
	BracketType BracketType   `json:"bracketType"`
	Config      BracketConfig `json:"config"`
}

// GroupTeamCount sums the team ids over all groups.
func (c BracketConfig) GroupTeamCount() int {
	total := 0
	for _, g := range c.Groups {
		total += len(g.TeamIDs)
	}
	return total
}

// IntOr returns *v unless it is nil or zero, in which case def is returned.
func IntOr(v *int, def int) int {
	if v == nil || *v == 0 {
		return def
	}
	return *v
}

func Int(v int) *int    { return &v }
func Bool(v bool) *bool { return &v }
