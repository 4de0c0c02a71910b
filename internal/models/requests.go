package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusProcessed RequestStatus = "processed"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// DepositRequest is created by the wallet flow and settled by an admin.
// ExternalReference is the payment transaction id the player quotes to support;
// it is unique per account so a double-submitted form cannot create two
// requests for the same payment.
type DepositRequest struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_deposit_account_ref,priority:1" json:"account_id"`
	Amount            decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	ExternalReference string          `gorm:"size:128;not null;uniqueIndex:idx_deposit_account_ref,priority:2" json:"external_reference"`
	Status            RequestStatus   `gorm:"size:16;not null;index" json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	SettledAt         *time.Time      `json:"settled_at,omitempty"`
}

type WithdrawalMethod string

const (
	MethodUPI    WithdrawalMethod = "upi"
	MethodBank   WithdrawalMethod = "bank"
	MethodCrypto WithdrawalMethod = "crypto"
)

// WithdrawalRequest reserves funds at creation time: the gross amount is
// debited before the request becomes pending, so it is unavailable while an
// admin decides. Fee is computed once at creation; NetAmount is what gets paid
// out externally.
type WithdrawalRequest struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"account_id"`
	GrossAmount   decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"gross_amount"`
	Fee           decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"fee"`
	NetAmount     decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"net_amount"`
	Method        WithdrawalMethod `gorm:"size:16;not null" json:"method"`
	UPIHandle     string           `gorm:"size:128" json:"upi_handle,omitempty"`
	BankAccount   string           `gorm:"size:64" json:"bank_account,omitempty"`
	BankIFSC      string           `gorm:"size:16" json:"bank_ifsc,omitempty"`
	CryptoAddress string           `gorm:"size:128" json:"crypto_address,omitempty"`
	Status        RequestStatus    `gorm:"size:16;not null;index" json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`
}
