package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/esports-admin/models"
)

type node struct {
	participant   *models.ParticipantID
	sourceMatchID string
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket seeds participants in order. When the field is not a power of two the
// top seeds receive first-round byes and enter the bracket in round 2, so the winners
// bracket always holds exactly len(participants)-1 matches.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (models.Snapshot, error) {
	participants := params.Participants
	n := len(participants)
	if n < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrNotEnoughParticipants, n)
	}

	bestOf := models.IntOr(params.Config.BestOf, defaultEliminationBestOf)

	numRounds, size := 0, 1
	for size < n {
		size <<= 1
		numRounds++
	}
	numByes := size - n

	rounds := make([]models.Round, 0, numRounds)

	firstRound := models.Round{Number: 1}
	current := make([]node, 0, size/2)
	idx := 0
	for slot := 0; slot < size/2; slot++ {
		if slot < numByes {
			p := participants[idx]
			current = append(current, node{participant: &p})
			idx++
			continue
		}
		p1, p2 := participants[idx], participants[idx+1]
		idx += 2
		id := fmt.Sprintf("R1M%d", len(firstRound.Matches)+1)
		firstRound.Matches = append(firstRound.Matches, models.Match{
			ID:           id,
			Status:       models.MatchStatusPending,
			Participant1: &p1,
			Participant2: &p2,
			BestOf:       bestOf,
		})
		current = append(current, node{sourceMatchID: id})
	}
	rounds = append(rounds, firstRound)

	for r := 2; r <= numRounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		round := models.Round{Number: r}
		next := make([]node, 0, len(current)/2)
		for i := 0; i+1 < len(current); i += 2 {
			id := fmt.Sprintf("R%dM%d", r, len(round.Matches)+1)
			m := models.Match{ID: id, Status: models.MatchStatusPending, BestOf: bestOf}
			m.Participant1, m.SourceMatch1 = current[i].participant, current[i].sourceMatchID
			m.Participant2, m.SourceMatch2 = current[i+1].participant, current[i+1].sourceMatchID
			round.Matches = append(round.Matches, m)
			next = append(next, node{sourceMatchID: id})
		}
		rounds = append(rounds, round)
		current = next
	}

	return models.SingleStageSnapshot{
		BracketType: models.BracketSingleElimination,
		Rounds:      &models.EliminationRounds{Winners: rounds},
	}, nil
}
