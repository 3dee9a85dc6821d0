package brackets

import "github.com/Dosada05/esports-admin/models"

// CountMatches tallies total and completed matches of a bracket snapshot. A nil
// snapshot has no progress.
func CountMatches(snapshot models.Snapshot) models.Progress {
	switch s := snapshot.(type) {
	case models.MultiStageSnapshot:
		return countMultiStage(s)
	case *models.MultiStageSnapshot:
		if s == nil {
			return models.Progress{}
		}
		return countMultiStage(*s)
	case models.CustomSnapshot:
		return countFlat(s.Matches)
	case *models.CustomSnapshot:
		if s == nil {
			return models.Progress{}
		}
		return countFlat(s.Matches)
	case models.SingleStageSnapshot:
		return countSingleStage(s)
	case *models.SingleStageSnapshot:
		if s == nil {
			return models.Progress{}
		}
		return countSingleStage(*s)
	}
	return models.Progress{}
}

// Stages that have not been generated yet contribute nothing.
func countMultiStage(s models.MultiStageSnapshot) models.Progress {
	var p models.Progress
	for _, stage := range s.Stages {
		if !stage.IsGenerated {
			continue
		}
		for _, g := range stage.Groups {
			p = p.Add(countRounds(g.Rounds))
		}
		p = p.Add(countRounds(stage.SwissRounds))
		if stage.Rounds != nil {
			p = p.Add(countRounds(stage.Rounds.Winners))
			p = p.Add(countRounds(stage.Rounds.Losers))
			p = p.Add(countFlat(stage.Rounds.GrandFinals))
		}
	}
	return p
}

// countSingleStage adds up every round set present on the snapshot. The sets are
// not treated as exclusive.
func countSingleStage(s models.SingleStageSnapshot) models.Progress {
	var p models.Progress
	for _, g := range s.Groups {
		p = p.Add(countRounds(g.Rounds))
	}
	p = p.Add(countRounds(s.SwissRounds))
	for _, r := range s.BattleRoyaleRounds {
		for _, m := range r.Matches {
			p.Total++
			if m.LobbyCompleted() {
				p.Completed++
			}
		}
	}
	if s.Rounds != nil {
		p = p.Add(countRounds(s.Rounds.Winners))
		p = p.Add(countRounds(s.Rounds.Losers))
		p = p.Add(countFlat(s.Rounds.GrandFinals))
		p = p.Add(countRounds(s.Rounds.List))
	}
	return p
}

func countRounds(rounds []models.Round) models.Progress {
	var p models.Progress
	for _, r := range rounds {
		p = p.Add(countFlat(r.Matches))
	}
	return p
}

func countFlat(matches []models.Match) models.Progress {
	p := models.Progress{Total: len(matches)}
	for _, m := range matches {
		if m.Completed() {
			p.Completed++
		}
	}
	return p
}
