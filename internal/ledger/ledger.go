package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"aviator-casino-backend/internal/models"
	"aviator-casino-backend/internal/storage"
)

// Service is the only component allowed to mutate account balances. Every
// successful Adjust commits one balance write and one TransactionRecord in the
// same atomic unit. Mutations on the same account are serialized by a
// per-account mutex; unrelated accounts proceed independently.
type Service struct {
	store storage.Store
	// One mutex per account, created on first use and never evicted: the map
	// grows with the set of accounts this process has touched, a few dozen
	// bytes each.
	locks sync.Map // uuid.UUID -> *sync.Mutex
	log   zerolog.Logger
}

func NewService(store storage.Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("component", "ledger").Logger(),
	}
}

// Adjustment is the committed result of an Adjust call. Replayed is true when
// the reference had already been applied and the stored result was returned
// without touching the balance.
type Adjustment struct {
	Record     *models.TransactionRecord
	NewBalance decimal.Decimal
	Replayed   bool
}

func (s *Service) lockAccount(id uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Adjust applies a signed delta to the account balance. The reference is an
// idempotency key: replaying a reference returns the previously committed
// record and does not re-apply the delta, so callers can retry safely.
func (s *Service) Adjust(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal, kind models.TransactionKind, reference string) (*Adjustment, error) {
	if reference == "" {
		return nil, ErrInvalidReference
	}
	if delta.IsZero() {
		return nil, ErrInvalidAmount
	}

	unlock := s.lockAccount(accountID)
	defer unlock()

	if existing, err := s.store.GetTransactionByReference(ctx, accountID, reference); err == nil {
		return &Adjustment{Record: existing, NewBalance: existing.BalanceAfter, Replayed: true}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check reference: %w", err)
	}

	// The in-process lock serializes local writers; version conflicts only
	// happen when another process raced us, so a short retry is enough.
	for attempt := 0; attempt < 3; attempt++ {
		account, err := s.store.GetAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, storage.ErrAccountNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, fmt.Errorf("failed to load account: %w", err)
		}
		if !account.IsActive {
			return nil, ErrAccountNotFound
		}

		newBalance := account.Balance.Add(delta)
		if newBalance.IsNegative() {
			return nil, ErrInsufficientFunds
		}

		rec := &models.TransactionRecord{
			ID:           uuid.New(),
			AccountID:    accountID,
			Kind:         kind,
			Amount:       delta,
			BalanceAfter: newBalance,
			Reference:    reference,
			CreatedAt:    time.Now(),
		}
		account.Balance = newBalance

		err = s.store.ApplyAdjustment(ctx, account, rec)
		if errors.Is(err, storage.ErrStaleAccount) {
			continue
		}
		if errors.Is(err, storage.ErrDuplicateReference) {
			existing, lookupErr := s.store.GetTransactionByReference(ctx, accountID, reference)
			if lookupErr != nil {
				return nil, fmt.Errorf("duplicate reference but lookup failed: %w", lookupErr)
			}
			return &Adjustment{Record: existing, NewBalance: existing.BalanceAfter, Replayed: true}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to commit adjustment: %w", err)
		}

		s.log.Debug().
			Str("account_id", accountID.String()).
			Str("kind", string(kind)).
			Str("amount", delta.String()).
			Str("balance_after", newBalance.String()).
			Str("reference", reference).
			Msg("balance adjusted")

		return &Adjustment{Record: rec, NewBalance: newBalance}, nil
	}

	return nil, fmt.Errorf("failed to commit adjustment: %w", storage.ErrStaleAccount)
}

// CreateAccount registers a new account with a zero balance and a fresh
// referral code.
func (s *Service) CreateAccount(ctx context.Context) (*models.Account, error) {
	code, err := models.NewReferralCode()
	if err != nil {
		return nil, err
	}
	account := &models.Account{
		ID:           uuid.New(),
		Balance:      decimal.Zero,
		IsActive:     true,
		ReferralCode: code,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	return account, err
}

func (s *Service) History(ctx context.Context, accountID uuid.UUID, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListTransactions(ctx, accountID, limit)
}
