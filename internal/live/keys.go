package live

import "time"

const (
	keyRoundState   = "round:%s:state"
	keyRound        = "round:%s"
	keyRoundHistory = "rounds:%s:history"
	keyRateLimit    = "ratelimit:%s:%s"

	ttlRoundState = 5 * time.Minute
	ttlRound      = 7 * 24 * time.Hour

	historyDepth = 100
)
