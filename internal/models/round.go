package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GameType string

const (
	GameCrash GameType = "crash"
	GameColor GameType = "color"
	GameRace  GameType = "race"
)

func (g GameType) Valid() bool {
	switch g {
	case GameCrash, GameColor, GameRace:
		return true
	}
	return false
}

type RoundPhase string

const (
	PhaseIdle      RoundPhase = "idle"
	PhaseBetting   RoundPhase = "betting"
	PhaseResolving RoundPhase = "resolving"
	PhaseResult    RoundPhase = "result"
)

// GameRound holds one round's sampled outcome. The outcome columns are
// type-specific: CrashPoint for crash, ResultColor/ResultNumber for color,
// Ranking (comma-separated competitor names, winner first) for race. Once
// ResolvedAt is set the outcome is frozen and never resampled.
type GameRound struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GameType       GameType   `gorm:"size:16;not null;index" json:"game_type"`
	Nonce          int64      `gorm:"not null" json:"nonce"`
	Phase          RoundPhase `gorm:"size:16;not null" json:"phase"`
	ServerSeedHash string     `gorm:"size:64" json:"server_seed_hash"`
	CrashPoint     float64    `json:"crash_point,omitempty"`
	ResultColor    string     `gorm:"size:16" json:"result_color,omitempty"`
	ResultNumber   int        `json:"result_number,omitempty"`
	Ranking        string     `gorm:"size:128" json:"ranking,omitempty"`
	OpenedAt       time.Time  `json:"opened_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

func (r *GameRound) Resolved() bool {
	return r.ResolvedAt != nil
}

// Bet is a stake placed against one round. The stake is debited when the bet
// is accepted; Settled flips exactly once when the round outcome (or a crash
// cashout) is applied.
type Bet struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RoundID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"round_id"`
	AccountID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	GameType          GameType        `gorm:"size:16;not null" json:"game_type"`
	Amount            decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Color             string          `gorm:"size:16" json:"color,omitempty"`
	Number            int             `json:"number,omitempty"`
	Competitor        string          `gorm:"size:32" json:"competitor,omitempty"`
	AutoCashout       float64         `json:"auto_cashout,omitempty"`
	Settled           bool            `gorm:"not null;default:false" json:"settled"`
	Won               bool            `gorm:"not null;default:false" json:"won"`
	CashoutMultiplier float64         `json:"cashout_multiplier,omitempty"`
	Payout            decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"payout"`
	CreatedAt         time.Time       `json:"created_at"`
	SettledAt         *time.Time      `json:"settled_at,omitempty"`
}
