package referral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/ledger"
	"aviator-casino-backend/internal/models"
	"aviator-casino-backend/internal/storage"
)

var (
	ErrAlreadyClaimed = errors.New("referral bonus already claimed for this pair")
	ErrSelfReferral   = errors.New("cannot claim a referral for yourself")
)

// Tracker grants the one-time referral bonus. The unique (referrer, referred)
// row is the gate: concurrent claims race on the insert, not on a
// check-then-act read.
type Tracker struct {
	store  storage.Store
	ledger *ledger.Service
	amount decimal.Decimal
	log    zerolog.Logger
}

func NewTracker(store storage.Store, ledgerSvc *ledger.Service, cfg config.ReferralConfig, log zerolog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		ledger: ledgerSvc,
		amount: decimal.NewFromFloat(cfg.BonusAmount),
		log:    log.With().Str("component", "referral").Logger(),
	}
}

// Grant is the result of a successful claim.
type Grant struct {
	Bonus      *models.ReferralBonus
	NewBalance decimal.Decimal
}

func creditReference(referrerID, referredID uuid.UUID) string {
	return fmt.Sprintf("referral:%s:%s", referrerID, referredID)
}

// Claim credits the referrer exactly once per referred account. A duplicate
// claim returns ErrAlreadyClaimed with no ledger mutation. If the credit fails
// after the row insert, the row is removed so the caller can retry.
func (t *Tracker) Claim(ctx context.Context, referrerID, referredID uuid.UUID) (*Grant, error) {
	if referrerID == referredID {
		return nil, ErrSelfReferral
	}

	bonus := &models.ReferralBonus{
		ID:         uuid.New(),
		ReferrerID: referrerID,
		ReferredID: referredID,
		Amount:     t.amount,
		CreatedAt:  time.Now(),
	}
	if err := t.store.CreateReferralBonus(ctx, bonus); err != nil {
		if errors.Is(err, storage.ErrAlreadyClaimed) {
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to record referral bonus: %w", err)
	}

	adj, err := t.ledger.Adjust(ctx, referrerID, t.amount, models.KindReferralBonus, creditReference(referrerID, referredID))
	if err != nil {
		if delErr := t.store.DeleteReferralBonus(ctx, bonus.ID); delErr != nil {
			t.log.Error().Err(delErr).Str("bonus_id", bonus.ID.String()).Msg("failed to compensate referral row")
		}
		return nil, fmt.Errorf("failed to credit referral bonus: %w", err)
	}

	t.log.Info().
		Str("referrer_id", referrerID.String()).
		Str("referred_id", referredID.String()).
		Str("amount", t.amount.String()).
		Msg("referral bonus granted")

	return &Grant{Bonus: bonus, NewBalance: adj.NewBalance}, nil
}
