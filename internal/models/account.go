package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the single authoritative holder of a player's balance. Balance is
// only ever written through the ledger; Version is bumped on every balance
// write so concurrent writers from other processes are detected.
type Account struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Balance      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance"`
	Version      int64           `gorm:"not null;default:0" json:"-"`
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
	ReferralCode string          `gorm:"size:16;uniqueIndex" json:"referral_code"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
