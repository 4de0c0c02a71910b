package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferralBonus exists at most once per (referrer, referred) pair; the unique
// index is the exactly-once guarantee, not any application-level check.
type ReferralBonus struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReferrerID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_referral_pair,priority:1" json:"referrer_id"`
	ReferredID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_referral_pair,priority:2" json:"referred_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}
