package game

import (
	"fmt"
	"math"

	"aviator-casino-backend/internal/config"
)

// sampleCrashPoint draws a crash point from the configured tier distribution:
// one roll picks the tier by cumulative probability, a second places the point
// uniformly inside it. Mass concentrated in the low tiers is what realizes the
// house edge; payouts themselves are fair multiples of the cashout point.
func sampleCrashPoint(fair *Fair, cfg config.CrashConfig, roundID string, nonce int64) float64 {
	tierRoll := fair.Roll("crash", "tier", roundID, fmt.Sprint(nonce))
	pointRoll := fair.Roll("crash", "point", roundID, fmt.Sprint(nonce))

	tier := cfg.Tiers[len(cfg.Tiers)-1]
	cumulative := 0.0
	for _, t := range cfg.Tiers {
		cumulative += t.Probability
		if tierRoll < cumulative {
			tier = t
			break
		}
	}

	point := tier.Min + pointRoll*(tier.Max-tier.Min)
	point = math.Floor(point*100) / 100

	if point < 1.0 {
		point = 1.0
	}
	return point
}
