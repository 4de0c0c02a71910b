package wallet_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/ledger"
	"aviator-casino-backend/internal/models"
	"aviator-casino-backend/internal/storage"
	"aviator-casino-backend/internal/wallet"
)

func newTestWallet(t *testing.T) (*wallet.Service, *ledger.Service) {
	t.Helper()
	return newTestWalletWithStore(t, storage.NewMemoryStore())
}

func newTestWalletWithStore(t *testing.T, store storage.Store) (*wallet.Service, *ledger.Service) {
	t.Helper()
	ledgerSvc := ledger.NewService(store, zerolog.Nop())
	cfg := config.WalletConfig{
		MinDeposit:       100,
		MinWithdrawal:    200,
		WithdrawalFeePct: 0.02,
		SupportPhone:     "918826817677",
	}
	return wallet.NewService(store, ledgerSvc, cfg, zerolog.Nop()), ledgerSvc
}

func fundedAccount(t *testing.T, ledgerSvc *ledger.Service, amount int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	account, err := ledgerSvc.CreateAccount(ctx)
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}
	if amount > 0 {
		if _, err := ledgerSvc.Adjust(ctx, account.ID, decimal.NewFromInt(amount), models.KindDeposit, "deposit:seed"); err != nil {
			t.Fatalf("Failed to fund account: %v", err)
		}
	}
	return account.ID
}

func balance(t *testing.T, ledgerSvc *ledger.Service, id uuid.UUID) decimal.Decimal {
	t.Helper()
	account, err := ledgerSvc.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load account: %v", err)
	}
	return account.Balance
}

func TestDepositLifecycle(t *testing.T) {
	svc, ledgerSvc := newTestWallet(t)
	ctx := context.Background()
	accountID := fundedAccount(t, ledgerSvc, 0)

	req, handoff, err := svc.RequestDeposit(ctx, accountID, decimal.NewFromInt(500), "utr-12345")
	if err != nil {
		t.Fatalf("Failed to request deposit: %v", err)
	}
	if req.Status != models.StatusPending {
		t.Errorf("New deposit should be pending, got %s", req.Status)
	}
	if handoff == "" {
		t.Error("Deposit request should return a hand-off message")
	}
	if !balance(t, ledgerSvc, accountID).IsZero() {
		t.Error("Pending deposit must not touch the balance")
	}

	approved, err := svc.ApproveDeposit(ctx, req.ID)
	if err != nil {
		t.Fatalf("Failed to approve deposit: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("Expected approved status, got %s", approved.Status)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(500)) {
		t.Errorf("Approval should credit 500, balance is %s", balance(t, ledgerSvc, accountID))
	}

	// A second approval is a no-op, not a second credit.
	again, err := svc.ApproveDeposit(ctx, req.ID)
	if err != nil {
		t.Fatalf("Re-approval should not error: %v", err)
	}
	if again.Status != models.StatusApproved {
		t.Errorf("Expected approved status, got %s", again.Status)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(500)) {
		t.Errorf("Re-approval must not credit twice, balance is %s", balance(t, ledgerSvc, accountID))
	}

	if _, err := svc.RejectDeposit(ctx, req.ID); !errors.Is(err, wallet.ErrRequestAlreadySettled) {
		t.Errorf("Rejecting an approved deposit should fail, got %v", err)
	}
}

func TestRejectDepositHasNoBalanceEffect(t *testing.T) {
	svc, ledgerSvc := newTestWallet(t)
	ctx := context.Background()
	accountID := fundedAccount(t, ledgerSvc, 0)

	req, _, err := svc.RequestDeposit(ctx, accountID, decimal.NewFromInt(300), "utr-reject")
	if err != nil {
		t.Fatalf("Failed to request deposit: %v", err)
	}

	rejected, err := svc.RejectDeposit(ctx, req.ID)
	if err != nil {
		t.Fatalf("Failed to reject deposit: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("Expected rejected status, got %s", rejected.Status)
	}
	if !balance(t, ledgerSvc, accountID).IsZero() {
		t.Error("Rejected deposit must not touch the balance")
	}

	if _, err := svc.ApproveDeposit(ctx, req.ID); !errors.Is(err, wallet.ErrRequestAlreadySettled) {
		t.Errorf("Approving a rejected deposit should fail, got %v", err)
	}
}

func TestDepositValidation(t *testing.T) {
	svc, ledgerSvc := newTestWallet(t)
	ctx := context.Background()
	accountID := fundedAccount(t, ledgerSvc, 0)

	if _, _, err := svc.RequestDeposit(ctx, accountID, decimal.NewFromInt(50), "utr-low"); !errors.Is(err, wallet.ErrBelowMinimum) {
		t.Errorf("Deposit below minimum should fail, got %v", err)
	}
	if _, _, err := svc.RequestDeposit(ctx, accountID, decimal.NewFromInt(-10), "utr-neg"); !errors.Is(err, wallet.ErrInvalidAmount) {
		t.Errorf("Negative deposit should fail, got %v", err)
	}

	if _, _, err := svc.RequestDeposit(ctx, accountID, decimal.NewFromInt(500), "utr-dup"); err != nil {
		t.Fatalf("First submission failed: %v", err)
	}
	if _, _, err := svc.RequestDeposit(ctx, accountID, decimal.NewFromInt(500), "utr-dup"); !errors.Is(err, wallet.ErrDuplicateSubmission) {
		t.Errorf("Duplicate external reference should fail, got %v", err)
	}
}

func TestWithdrawalReservationAndFee(t *testing.T) {
	svc, ledgerSvc := newTestWallet(t)
	ctx := context.Background()
	accountID := fundedAccount(t, ledgerSvc, 1000)

	req, err := svc.RequestWithdrawal(ctx, accountID, &models.WithdrawalCreateRequest{
		Amount:    decimal.NewFromInt(500),
		Method:    models.MethodUPI,
		UPIHandle: "player@upi",
	})
	if err != nil {
		t.Fatalf("Failed to request withdrawal: %v", err)
	}

	if !req.Fee.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Fee on 500 at 2%% should be 10, got %s", req.Fee)
	}
	if !req.NetAmount.Equal(decimal.NewFromInt(490)) {
		t.Errorf("Net amount should be 490, got %s", req.NetAmount)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(500)) {
		t.Errorf("Gross amount should be reserved at creation, balance is %s", balance(t, ledgerSvc, accountID))
	}

	processed, err := svc.ProcessWithdrawal(ctx, req.ID)
	if err != nil {
		t.Fatalf("Failed to process withdrawal: %v", err)
	}
	if processed.Status != models.StatusProcessed {
		t.Errorf("Expected processed status, got %s", processed.Status)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(500)) {
		t.Error("Processing must not move the balance again")
	}
}

func TestWithdrawalRejectRestoresBalance(t *testing.T) {
	svc, ledgerSvc := newTestWallet(t)
	ctx := context.Background()
	accountID := fundedAccount(t, ledgerSvc, 1000)

	req, err := svc.RequestWithdrawal(ctx, accountID, &models.WithdrawalCreateRequest{
		Amount:      decimal.NewFromInt(400),
		Method:      models.MethodBank,
		BankAccount: "1234567890",
		BankIFSC:    "HDFC0001234",
	})
	if err != nil {
		t.Fatalf("Failed to request withdrawal: %v", err)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(600)) {
		t.Fatalf("Expected 600 after reservation, got %s", balance(t, ledgerSvc, accountID))
	}

	rejected, err := svc.RejectWithdrawal(ctx, req.ID)
	if err != nil {
		t.Fatalf("Failed to reject withdrawal: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("Expected rejected status, got %s", rejected.Status)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Rejection should restore the full gross amount, balance is %s", balance(t, ledgerSvc, accountID))
	}

	if _, err := svc.ProcessWithdrawal(ctx, req.ID); !errors.Is(err, wallet.ErrRequestAlreadySettled) {
		t.Errorf("Processing a rejected withdrawal should fail, got %v", err)
	}
}

func TestWithdrawalCancelOwnerOnly(t *testing.T) {
	svc, ledgerSvc := newTestWallet(t)
	ctx := context.Background()
	ownerID := fundedAccount(t, ledgerSvc, 1000)
	otherID := fundedAccount(t, ledgerSvc, 0)

	req, err := svc.RequestWithdrawal(ctx, ownerID, &models.WithdrawalCreateRequest{
		Amount:    decimal.NewFromInt(300),
		Method:    models.MethodUPI,
		UPIHandle: "player@upi",
	})
	if err != nil {
		t.Fatalf("Failed to request withdrawal: %v", err)
	}

	if _, err := svc.CancelWithdrawal(ctx, otherID, req.ID); !errors.Is(err, wallet.ErrNotRequestOwner) {
		t.Errorf("Another account must not cancel the request, got %v", err)
	}

	cancelled, err := svc.CancelWithdrawal(ctx, ownerID, req.ID)
	if err != nil {
		t.Fatalf("Owner cancel failed: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("Expected cancelled status, got %s", cancelled.Status)
	}
	if !balance(t, ledgerSvc, ownerID).Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Cancel should restore the reservation, balance is %s", balance(t, ledgerSvc, ownerID))
	}
}

func TestWithdrawalValidation(t *testing.T) {
	svc, ledgerSvc := newTestWallet(t)
	ctx := context.Background()
	accountID := fundedAccount(t, ledgerSvc, 1000)

	if _, err := svc.RequestWithdrawal(ctx, accountID, &models.WithdrawalCreateRequest{
		Amount:    decimal.NewFromInt(100),
		Method:    models.MethodUPI,
		UPIHandle: "player@upi",
	}); !errors.Is(err, wallet.ErrBelowMinimum) {
		t.Errorf("Withdrawal below minimum should fail, got %v", err)
	}

	if _, err := svc.RequestWithdrawal(ctx, accountID, &models.WithdrawalCreateRequest{
		Amount: decimal.NewFromInt(300),
		Method: models.MethodUPI,
	}); !errors.Is(err, wallet.ErrMissingMethodDetails) {
		t.Errorf("UPI withdrawal without a handle should fail, got %v", err)
	}

	if _, err := svc.RequestWithdrawal(ctx, accountID, &models.WithdrawalCreateRequest{
		Amount:    decimal.NewFromInt(5000),
		Method:    models.MethodUPI,
		UPIHandle: "player@upi",
	}); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("Withdrawal beyond balance should fail, got %v", err)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(1000)) {
		t.Error("Failed withdrawal must not move the balance")
	}

	pending, err := svc.PendingWithdrawals(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list pending withdrawals: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Failed requests must not appear in the queue, got %d", len(pending))
	}
}

// racingDepositStore commits a rival settlement right before the caller's own
// deposit status transition, forcing the caller to lose the race.
type racingDepositStore struct {
	storage.Store
	rival models.RequestStatus
	once  sync.Once
}

func (s *racingDepositStore) UpdateDepositStatus(ctx context.Context, id uuid.UUID, from, to models.RequestStatus, settledAt time.Time) error {
	s.once.Do(func() {
		_ = s.Store.UpdateDepositStatus(ctx, id, from, s.rival, time.Now())
	})
	return s.Store.UpdateDepositStatus(ctx, id, from, to, settledAt)
}

// racingWithdrawalStore is the withdrawal twin of racingDepositStore.
type racingWithdrawalStore struct {
	storage.Store
	rival models.RequestStatus
	once  sync.Once
}

func (s *racingWithdrawalStore) UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, from, to models.RequestStatus, settledAt time.Time) error {
	s.once.Do(func() {
		_ = s.Store.UpdateWithdrawalStatus(ctx, id, from, s.rival, time.Now())
	})
	return s.Store.UpdateWithdrawalStatus(ctx, id, from, to, settledAt)
}

func TestApproveDepositLosingRaceToRejectDoesNotCredit(t *testing.T) {
	store := &racingDepositStore{Store: storage.NewMemoryStore(), rival: models.StatusRejected}
	svc, ledgerSvc := newTestWalletWithStore(t, store)
	ctx := context.Background()
	accountID := fundedAccount(t, ledgerSvc, 0)

	req, _, err := svc.RequestDeposit(ctx, accountID, decimal.NewFromInt(500), "utr-race-1")
	if err != nil {
		t.Fatalf("Failed to request deposit: %v", err)
	}

	if _, err := svc.ApproveDeposit(ctx, req.ID); !errors.Is(err, wallet.ErrRequestAlreadySettled) {
		t.Fatalf("Approval losing to a rejection should report settled, got %v", err)
	}
	if !balance(t, ledgerSvc, accountID).IsZero() {
		t.Errorf("A rejected deposit must never be credited, balance = %s", balance(t, ledgerSvc, accountID))
	}
	stored, err := store.GetDepositRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("Failed to load deposit: %v", err)
	}
	if stored.Status != models.StatusRejected {
		t.Errorf("Expected rejected status, got %s", stored.Status)
	}
}

func TestApproveDepositLosingRaceToApproveCreditsOnce(t *testing.T) {
	store := &racingDepositStore{Store: storage.NewMemoryStore(), rival: models.StatusApproved}
	svc, ledgerSvc := newTestWalletWithStore(t, store)
	ctx := context.Background()
	accountID := fundedAccount(t, ledgerSvc, 0)

	req, _, err := svc.RequestDeposit(ctx, accountID, decimal.NewFromInt(500), "utr-race-2")
	if err != nil {
		t.Fatalf("Failed to request deposit: %v", err)
	}

	approved, err := svc.ApproveDeposit(ctx, req.ID)
	if err != nil {
		t.Fatalf("Failed to approve deposit: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("Expected approved status, got %s", approved.Status)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(500)) {
		t.Errorf("Deposit must be credited exactly once, balance = %s", balance(t, ledgerSvc, accountID))
	}
}

func TestRejectWithdrawalLosingRaceToProcessKeepsReservationSpent(t *testing.T) {
	store := &racingWithdrawalStore{Store: storage.NewMemoryStore(), rival: models.StatusProcessed}
	svc, ledgerSvc := newTestWalletWithStore(t, store)
	ctx := context.Background()
	accountID := fundedAccount(t, ledgerSvc, 1000)

	req, err := svc.RequestWithdrawal(ctx, accountID, &models.WithdrawalCreateRequest{
		Amount:    decimal.NewFromInt(500),
		Method:    models.MethodUPI,
		UPIHandle: "player@upi",
	})
	if err != nil {
		t.Fatalf("Failed to request withdrawal: %v", err)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(500)) {
		t.Fatalf("Reservation should leave 500, got %s", balance(t, ledgerSvc, accountID))
	}

	if _, err := svc.RejectWithdrawal(ctx, req.ID); !errors.Is(err, wallet.ErrRequestAlreadySettled) {
		t.Fatalf("Rejection losing to a processor should report settled, got %v", err)
	}
	if !balance(t, ledgerSvc, accountID).Equal(decimal.NewFromInt(500)) {
		t.Errorf("A processed withdrawal must never be refunded, balance = %s", balance(t, ledgerSvc, accountID))
	}
	stored, err := store.GetWithdrawalRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("Failed to load withdrawal: %v", err)
	}
	if stored.Status != models.StatusProcessed {
		t.Errorf("Expected processed status, got %s", stored.Status)
	}
}
