package game

import (
	"fmt"

	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/models"
)

// sampleColorOutcome draws the round color by configured weight and the round
// number uniformly from 1..NumberRange. Sampling depends only on the round
// identity, never on what any bettor selected.
func sampleColorOutcome(fair *Fair, cfg config.ColorConfig, roundID string, nonce int64) (string, int) {
	colorRoll := fair.Roll("color", "color", roundID, fmt.Sprint(nonce))
	numberRoll := fair.Roll("color", "number", roundID, fmt.Sprint(nonce))

	color := cfg.Colors[len(cfg.Colors)-1]
	cumulative := 0.0
	for _, c := range cfg.Colors {
		cumulative += cfg.Weights[c]
		if colorRoll < cumulative {
			color = c
			break
		}
	}

	number := 1 + int(numberRoll*float64(cfg.NumberRange))
	if number > cfg.NumberRange {
		number = cfg.NumberRange
	}

	return color, number
}

// colorPayout returns the winning multiplier for a bet against the resolved
// color/number, or false if the bet lost. A bet matching both sides pays the
// jackpot multiplier; otherwise the best matching single rule applies.
func colorPayout(cfg config.ColorConfig, bet *models.Bet, color string, number int) (float64, bool) {
	colorMatch := bet.Color != "" && bet.Color == color
	numberMatch := bet.Number != 0 && bet.Number == number

	switch {
	case colorMatch && numberMatch:
		return cfg.JackpotMultiplier, true
	case colorMatch:
		return cfg.ColorMultipliers[color], true
	case numberMatch:
		return cfg.NumberMultiplier, true
	}
	return 0, false
}

func (e *Engine) validColor(color string) bool {
	for _, c := range e.cfg.Color.Colors {
		if c == color {
			return true
		}
	}
	return false
}
