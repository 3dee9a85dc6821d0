package brackets

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Dosada05/esports-admin/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleElimination_MatchCountMatchesEstimate(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	for n := 2; n <= 33; n++ {
		snapshot, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
			Participants: SeedParticipants(n, models.BracketConfig{}),
		})
		require.NoError(t, err, "n=%d", n)

		p := CountMatches(snapshot)
		assert.Equal(t, EstimateMatchCount(models.BracketSingleElimination, n, models.BracketConfig{}), p.Total, "n=%d", n)
		assert.Equal(t, 0, p.Completed)
	}
}

func TestSingleElimination_ByesGoToTopSeeds(t *testing.T) {
	snapshot, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		Participants: ids("1", "2", "3", "4", "5", "6"),
		Config:       models.BracketConfig{BestOf: models.Int(5)},
	})
	require.NoError(t, err)

	single, ok := snapshot.(models.SingleStageSnapshot)
	require.True(t, ok)
	require.NotNil(t, single.Rounds)
	winners := single.Rounds.Winners
	require.Len(t, winners, 3)

	// 6 teams in an 8 slot bracket: seeds 1 and 2 skip round 1
	require.Len(t, winners[0].Matches, 2)
	assert.Equal(t, models.ParticipantID("3"), *winners[0].Matches[0].Participant1)
	assert.Equal(t, models.ParticipantID("4"), *winners[0].Matches[0].Participant2)
	assert.Equal(t, 5, winners[0].Matches[0].BestOf)

	require.Len(t, winners[1].Matches, 2)
	semi := winners[1].Matches[0]
	assert.Equal(t, models.ParticipantID("1"), *semi.Participant1)
	assert.Equal(t, models.ParticipantID("2"), *semi.Participant2)
	second := winners[1].Matches[1]
	assert.Equal(t, "R1M1", second.SourceMatch1)
	assert.Equal(t, "R1M2", second.SourceMatch2)

	require.Len(t, winners[2].Matches, 1)
	assert.Equal(t, "R2M1", winners[2].Matches[0].SourceMatch1)
	assert.Equal(t, "R2M2", winners[2].Matches[0].SourceMatch2)
}

func TestSingleElimination_NotEnoughParticipants(t *testing.T) {
	_, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Participants: ids("1")})
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
}

func TestRoundRobin_EveryPairMeetsOnce(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 8} {
		snapshot, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
			Participants: SeedParticipants(n, models.BracketConfig{}),
		})
		require.NoError(t, err)

		single := snapshot.(models.SingleStageSnapshot)
		require.Len(t, single.Groups, 1)

		seen := map[[2]models.ParticipantID]bool{}
		for _, r := range single.Groups[0].Rounds {
			inRound := map[models.ParticipantID]bool{}
			for _, m := range r.Matches {
				a, b := *m.Participant1, *m.Participant2
				assert.NotEqual(t, a, b)
				assert.False(t, inRound[a] || inRound[b], "participant plays twice in round %d", r.Number)
				inRound[a], inRound[b] = true, true
				if b < a {
					a, b = b, a
				}
				key := [2]models.ParticipantID{a, b}
				assert.False(t, seen[key], "pair %v scheduled twice", key)
				seen[key] = true
			}
		}
		assert.Len(t, seen, n*(n-1)/2)
		assert.Equal(t, EstimateMatchCount(models.BracketRoundRobin, n, models.BracketConfig{}), CountMatches(snapshot).Total)
	}
}

func TestRoundRobin_ConfiguredGroups(t *testing.T) {
	cfg := models.BracketConfig{Groups: []models.Group{
		{Name: "A", TeamIDs: ids("1", "2", "3")},
		{Name: "B", TeamIDs: ids("4", "5")},
	}}
	snapshot, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, models.Progress{Total: 4}, CountMatches(snapshot))
	single := snapshot.(models.SingleStageSnapshot)
	assert.Equal(t, "A", single.Groups[0].Name)
	assert.Equal(t, 1, single.Groups[1].Rounds[0].Matches[0].BestOf)
}

func TestGeneratedSnapshotSurvivesJSON(t *testing.T) {
	snapshot, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		Participants: SeedParticipants(5, models.BracketConfig{}),
	})
	require.NoError(t, err)

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	decoded, err := models.DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, models.Progress{Total: 4}, CountMatches(decoded))
}

func TestGeneratorFor(t *testing.T) {
	g, err := GeneratorFor(models.BracketSingleElimination)
	require.NoError(t, err)
	assert.Equal(t, "SingleElimination", g.GetName())

	g, err = GeneratorFor(models.BracketRoundRobin)
	require.NoError(t, err)
	assert.Equal(t, "RoundRobin", g.GetName())

	_, err = GeneratorFor(models.BracketSwiss)
	assert.ErrorIs(t, err, ErrUnsupportedBracketType)
}

func TestSeedParticipants(t *testing.T) {
	assert.Equal(t, ids("1", "2", "3"), SeedParticipants(3, models.BracketConfig{}))
	cfg := models.BracketConfig{Groups: []models.Group{{TeamIDs: ids("a", "b")}, {TeamIDs: ids("c")}}}
	assert.Equal(t, ids("a", "b", "c"), SeedParticipants(10, cfg))
	assert.Empty(t, SeedParticipants(-1, models.BracketConfig{}))
}
