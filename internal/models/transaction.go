package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindDeposit         TransactionKind = "deposit"
	KindWithdrawal      TransactionKind = "withdrawal"
	KindBet             TransactionKind = "bet"
	KindPayout          TransactionKind = "payout"
	KindAdminAdjustment TransactionKind = "admin_adjustment"
	KindReferralBonus   TransactionKind = "referral_bonus"
)

// TransactionRecord is the append-only ledger entry. Amount is signed; debits
// are negative. BalanceAfter is the account balance committed in the same
// atomic unit as this record. The unique (account_id, reference) index is what
// makes ledger adjustments idempotent.
type TransactionRecord struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_tx_account_reference,priority:1" json:"account_id"`
	Kind         TransactionKind `gorm:"size:32;not null" json:"kind"`
	Amount       decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance_after"`
	Reference    string          `gorm:"size:128;not null;uniqueIndex:idx_tx_account_reference,priority:2" json:"reference"`
	CreatedAt    time.Time       `json:"created_at"`
}
