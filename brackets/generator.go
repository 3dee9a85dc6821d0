package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-admin/models"
)

var (
	ErrNotEnoughParticipants  = errors.New("not enough participants to generate a bracket (minimum 2)")
	ErrUnsupportedBracketType = errors.New("bracket type cannot be generated automatically")
)

type GenerateBracketParams struct {
	Config       models.BracketConfig
	Participants []models.ParticipantID
}

// BracketGenerator builds the initial snapshot of a bracket. No match is completed yet,
// except that byes advance their participant without a match record.
type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (models.Snapshot, error)

	GetName() string
}

// GeneratorFor returns the generator for a topology.
func GeneratorFor(bracketType models.BracketType) (BracketGenerator, error) {
	switch bracketType {
	case models.BracketSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.BracketRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBracketType, bracketType)
	}
}

// SeedParticipants returns the participant list for a generated bracket: the group
// members in group order when groups are configured, otherwise seeds "1".."teamCount".
func SeedParticipants(teamCount int, cfg models.BracketConfig) []models.ParticipantID {
	if len(cfg.Groups) > 0 {
		ids := make([]models.ParticipantID, 0, cfg.GroupTeamCount())
		for _, g := range cfg.Groups {
			ids = append(ids, g.TeamIDs...)
		}
		return ids
	}
	if teamCount < 0 {
		teamCount = 0
	}
	ids := make([]models.ParticipantID, teamCount)
	for i := range ids {
		ids[i] = models.ParticipantIDFromInt(i + 1)
	}
	return ids
}
