package brackets

import (
	"fmt"

	"github.com/Dosada05/esports-admin/models"
)

const (
	defaultEliminationBestOf = 3
	defaultRoundRobinBestOf  = 1
	defaultSwissBestOf       = 3
	defaultSwissRounds       = 5
	defaultBattleRoyaleRound = 3
	defaultCustomRounds      = 1
	defaultCustomBestOf      = 1
)

// EstimateMatchCount returns how many matches a finished bracket of the given shape
// will have played. Fewer than two teams and unknown types yield 0.
func EstimateMatchCount(bracketType models.BracketType, teamCount int, cfg models.BracketConfig) int {
	if teamCount < 2 {
		return 0
	}

	switch bracketType {
	case models.BracketSingleElimination:
		return teamCount - 1

	case models.BracketDoubleElimination:
		count := 2 * (teamCount - 1)
		if cfg.GrandFinalsReset != nil && *cfg.GrandFinalsReset {
			count++
		}
		return count

	case models.BracketRoundRobin:
		if len(cfg.Groups) > 0 {
			total := 0
			for _, g := range cfg.Groups {
				total += pairings(len(g.TeamIDs))
			}
			return total
		}
		return pairings(teamCount)

	case models.BracketSwiss:
		rounds := defaultSwissRounds
		if cfg.SwissConfig != nil && cfg.SwissConfig.TotalRounds != 0 {
			rounds = cfg.SwissConfig.TotalRounds
		}
		return (teamCount / 2) * rounds

	case models.BracketBattleRoyale:
		// every round is a single lobby session regardless of lobby size
		if cfg.BattleRoyaleConfig != nil && cfg.BattleRoyaleConfig.TotalRounds != 0 {
			return cfg.BattleRoyaleConfig.TotalRounds
		}
		return defaultBattleRoyaleRound

	case models.BracketCustom:
		return models.IntOr(cfg.CustomRounds, defaultCustomRounds)

	case models.BracketMultiStage:
		total := 0
		for _, stage := range cfg.Stages {
			stageTeams := teamCount
			if len(stage.Config.Groups) > 0 {
				stageTeams = stage.Config.GroupTeamCount()
			}
			total += EstimateMatchCount(stage.BracketType, stageTeams, stage.Config)
		}
		return total
	}

	return 0
}

func pairings(n int) int {
	return n * (n - 1) / 2
}

// ConfigSummary lists the configuration facts shown next to a bracket, e.g.
// ["Bo3", "GF Reset ON"]. Values are echoed as given.
func ConfigSummary(bracketType models.BracketType, cfg models.BracketConfig) []string {
	items := make([]string, 0, 4)

	switch bracketType {
	case models.BracketSingleElimination:
		items = append(items, bestOf(models.IntOr(cfg.BestOf, defaultEliminationBestOf)))
		if cfg.AutoAdvance != nil && !*cfg.AutoAdvance {
			items = append(items, "Manual advance")
		}

	case models.BracketDoubleElimination:
		items = append(items, bestOf(models.IntOr(cfg.BestOf, defaultEliminationBestOf)))
		if cfg.GrandFinalsReset != nil && !*cfg.GrandFinalsReset {
			items = append(items, "GF Reset OFF")
		} else {
			items = append(items, "GF Reset ON")
		}
		if cfg.AutoAdvance != nil && !*cfg.AutoAdvance {
			items = append(items, "Manual advance")
		}

	case models.BracketRoundRobin:
		groups := len(cfg.Groups)
		if groups == 0 {
			groups = 1
		}
		items = append(items,
			bestOf(models.IntOr(cfg.BestOf, defaultRoundRobinBestOf)),
			fmt.Sprintf("%d group(s)", groups),
		)

	case models.BracketSwiss:
		if sc := cfg.SwissConfig; sc != nil {
			items = append(items,
				fmt.Sprintf("%d rounds", sc.TotalRounds),
				fmt.Sprintf("%dW to qualify", sc.WinsToQualify),
				fmt.Sprintf("%dL to eliminate", sc.LossesToEliminate),
			)
		}
		items = append(items, bestOf(models.IntOr(cfg.BestOf, defaultSwissBestOf)))

	case models.BracketBattleRoyale:
		if br := cfg.BattleRoyaleConfig; br != nil {
			items = append(items,
				fmt.Sprintf("%d rounds", br.TotalRounds),
				fmt.Sprintf("%d per lobby", br.TeamsPerLobby),
			)
		}

	case models.BracketCustom:
		items = append(items,
			fmt.Sprintf("%d round(s)", models.IntOr(cfg.CustomRounds, defaultCustomRounds)),
			bestOf(models.IntOr(cfg.CustomBestOf, defaultCustomBestOf)),
		)

	case models.BracketMultiStage:
		if cfg.Stages != nil {
			items = append(items, fmt.Sprintf("%d stages", len(cfg.Stages)))
		}
	}

	return items
}

func bestOf(n int) string {
	return fmt.Sprintf("Bo%d", n)
}
