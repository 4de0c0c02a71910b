package referral_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/ledger"
	"aviator-casino-backend/internal/referral"
	"aviator-casino-backend/internal/storage"
)

func newTestTracker(t *testing.T) (*referral.Tracker, *ledger.Service) {
	t.Helper()
	store := storage.NewMemoryStore()
	ledgerSvc := ledger.NewService(store, zerolog.Nop())
	tracker := referral.NewTracker(store, ledgerSvc, config.ReferralConfig{BonusAmount: 500}, zerolog.Nop())
	return tracker, ledgerSvc
}

func TestClaimGrantsOnce(t *testing.T) {
	tracker, ledgerSvc := newTestTracker(t)
	ctx := context.Background()

	referrer, err := ledgerSvc.CreateAccount(ctx)
	if err != nil {
		t.Fatalf("Failed to create referrer: %v", err)
	}
	referred, err := ledgerSvc.CreateAccount(ctx)
	if err != nil {
		t.Fatalf("Failed to create referred: %v", err)
	}

	grant, err := tracker.Claim(ctx, referrer.ID, referred.ID)
	if err != nil {
		t.Fatalf("First claim failed: %v", err)
	}
	if !grant.NewBalance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Referrer should be credited 500, got %s", grant.NewBalance)
	}

	if _, err := tracker.Claim(ctx, referrer.ID, referred.ID); !errors.Is(err, referral.ErrAlreadyClaimed) {
		t.Fatalf("Second claim should fail with ErrAlreadyClaimed, got %v", err)
	}

	account, _ := ledgerSvc.GetAccount(ctx, referrer.ID)
	if !account.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Duplicate claim must not credit again, balance is %s", account.Balance)
	}
}

func TestClaimSelfReferral(t *testing.T) {
	tracker, ledgerSvc := newTestTracker(t)
	ctx := context.Background()

	account, err := ledgerSvc.CreateAccount(ctx)
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}

	if _, err := tracker.Claim(ctx, account.ID, account.ID); !errors.Is(err, referral.ErrSelfReferral) {
		t.Fatalf("Self referral should fail, got %v", err)
	}
}

func TestClaimDistinctReferredAccounts(t *testing.T) {
	tracker, ledgerSvc := newTestTracker(t)
	ctx := context.Background()

	referrer, _ := ledgerSvc.CreateAccount(ctx)
	first, _ := ledgerSvc.CreateAccount(ctx)
	second, _ := ledgerSvc.CreateAccount(ctx)

	if _, err := tracker.Claim(ctx, referrer.ID, first.ID); err != nil {
		t.Fatalf("First claim failed: %v", err)
	}
	if _, err := tracker.Claim(ctx, referrer.ID, second.ID); err != nil {
		t.Fatalf("Claim for a different referred account failed: %v", err)
	}

	account, _ := ledgerSvc.GetAccount(ctx, referrer.ID)
	if !account.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected 1000 after two distinct referrals, got %s", account.Balance)
	}
}

func TestConcurrentClaimsCreditExactlyOnce(t *testing.T) {
	tracker, ledgerSvc := newTestTracker(t)
	ctx := context.Background()

	referrer, _ := ledgerSvc.CreateAccount(ctx)
	referred, _ := ledgerSvc.CreateAccount(ctx)

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.Claim(ctx, referrer.ID, referred.ID)
			switch {
			case err == nil:
				mu.Lock()
				granted++
				mu.Unlock()
			case errors.Is(err, referral.ErrAlreadyClaimed):
			default:
				t.Errorf("Unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()

	if granted != 1 {
		t.Errorf("Exactly one concurrent claim should win, got %d", granted)
	}

	account, _ := ledgerSvc.GetAccount(ctx, referrer.ID)
	if !account.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Concurrent claims must credit exactly once, balance is %s", account.Balance)
	}
}
