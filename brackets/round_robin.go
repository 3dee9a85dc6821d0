package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/esports-admin/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket schedules every group with the circle method: each member meets every
// other member of its group once. Without configured groups all participants form one group.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (models.Snapshot, error) {
	groups := params.Config.Groups
	if len(groups) == 0 {
		if len(params.Participants) < 2 {
			return nil, fmt.Errorf("%w: found %d", ErrNotEnoughParticipants, len(params.Participants))
		}
		groups = []models.Group{{Name: "A", TeamIDs: params.Participants}}
	} else if params.Config.GroupTeamCount() < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrNotEnoughParticipants, params.Config.GroupTeamCount())
	}

	bestOf := models.IntOr(params.Config.BestOf, defaultRoundRobinBestOf)

	out := make([]models.GroupRounds, 0, len(groups))
	for gi, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, models.GroupRounds{
			Name:    group.Name,
			TeamIDs: group.TeamIDs,
			Rounds:  scheduleGroup(gi+1, group.TeamIDs, bestOf),
		})
	}

	return models.SingleStageSnapshot{
		BracketType: models.BracketRoundRobin,
		Groups:      out,
	}, nil
}

func scheduleGroup(groupNum int, members []models.ParticipantID, bestOf int) []models.Round {
	if len(members) < 2 {
		return []models.Round{}
	}

	// an empty id marks the rest slot of an odd-sized group
	ids := make([]models.ParticipantID, len(members), len(members)+1)
	copy(ids, members)
	if len(ids)%2 == 1 {
		ids = append(ids, "")
	}
	m := len(ids)

	rounds := make([]models.Round, 0, m-1)
	for r := 0; r < m-1; r++ {
		round := models.Round{Number: r + 1}
		for i := 0; i < m/2; i++ {
			a, b := ids[i], ids[m-1-i]
			if a == "" || b == "" {
				continue
			}
			round.Matches = append(round.Matches, models.Match{
				ID:           fmt.Sprintf("G%dR%dM%d", groupNum, r+1, len(round.Matches)+1),
				Status:       models.MatchStatusPending,
				Participant1: &a,
				Participant2: &b,
				BestOf:       bestOf,
			})
		}
		rounds = append(rounds, round)

		last := ids[m-1]
		copy(ids[2:], ids[1:m-1])
		ids[1] = last
	}
	return rounds
}
