package game

import (
	"fmt"
	"strings"

	"aviator-casino-backend/internal/config"
)

// sampleRanking draws a full finish order over the configured competitors by
// successive weighted draws without replacement, so the result is always a
// permutation of the field.
func sampleRanking(fair *Fair, cfg config.RaceConfig, roundID string, nonce int64) []string {
	remaining := make([]config.RaceCompetitor, len(cfg.Competitors))
	copy(remaining, cfg.Competitors)

	ranking := make([]string, 0, len(remaining))
	for position := 0; len(remaining) > 0; position++ {
		total := 0.0
		for _, c := range remaining {
			total += c.Weight
		}

		roll := fair.Roll("race", "rank", roundID, fmt.Sprint(nonce), fmt.Sprint(position)) * total
		picked := len(remaining) - 1
		cumulative := 0.0
		for i, c := range remaining {
			cumulative += c.Weight
			if roll < cumulative {
				picked = i
				break
			}
		}

		ranking = append(ranking, remaining[picked].Name)
		remaining = append(remaining[:picked], remaining[picked+1:]...)
	}

	return ranking
}

func raceWinner(ranking string) string {
	parts := strings.Split(ranking, ",")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func (e *Engine) raceMultiplier(competitor string) (float64, bool) {
	for _, c := range e.cfg.Race.Competitors {
		if c.Name == competitor {
			return c.Multiplier, true
		}
	}
	return 0, false
}
