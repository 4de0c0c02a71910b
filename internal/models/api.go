package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BetRequest is the wire shape for placing a bet. Selection fields are
// game-specific: crash takes an optional auto-cashout, color takes a color
// and/or a number, race takes a competitor name.
type BetRequest struct {
	GameType    GameType        `json:"game_type" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Color       string          `json:"color,omitempty"`
	Number      int             `json:"number,omitempty"`
	Competitor  string          `json:"competitor,omitempty"`
	AutoCashout float64         `json:"auto_cashout,omitempty"`
}

func (br *BetRequest) Validate() error {
	if !br.GameType.Valid() {
		return fmt.Errorf("invalid game type: %s", br.GameType)
	}
	if !br.Amount.IsPositive() {
		return fmt.Errorf("bet amount must be positive")
	}
	switch br.GameType {
	case GameColor:
		if br.Color == "" && br.Number == 0 {
			return fmt.Errorf("color bet must target a color, a number, or both")
		}
	case GameRace:
		if br.Competitor == "" {
			return fmt.Errorf("race bet must target a competitor")
		}
	case GameCrash:
		if br.AutoCashout != 0 && br.AutoCashout < 1.0 {
			return fmt.Errorf("auto cashout must be at least 1.0x")
		}
	}
	return nil
}

type CashoutRequest struct {
	BetID string `json:"bet_id" binding:"required"`
}

type DepositCreateRequest struct {
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	ExternalReference string          `json:"external_reference" binding:"required"`
}

type WithdrawalCreateRequest struct {
	Amount        decimal.Decimal  `json:"amount" binding:"required"`
	Method        WithdrawalMethod `json:"method" binding:"required"`
	UPIHandle     string           `json:"upi_handle,omitempty"`
	BankAccount   string           `json:"bank_account,omitempty"`
	BankIFSC      string           `json:"bank_ifsc,omitempty"`
	CryptoAddress string           `json:"crypto_address,omitempty"`
}

type AdminAdjustRequest struct {
	AccountID string          `json:"account_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference" binding:"required"`
}

type RegisterRequest struct {
	ReferralCode string `json:"referral_code,omitempty"`
}
