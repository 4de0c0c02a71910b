package wallet

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

// Service runs the deposit and withdrawal request lifecycles. Deposits credit
// on admin approval; withdrawals reserve funds at creation and only move money
// again if the reservation has to be reversed.
type Service struct {
	store  storage.Store
	ledger *ledger.Service
	cfg    config.WalletConfig
	log    zerolog.Logger
}

func NewService(store storage.Store, ledgerSvc *ledger.Service, cfg config.WalletConfig, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		ledger: ledgerSvc,
		cfg:    cfg,
		log:    log.With().Str("component", "wallet").Logger(),
	}
}

func depositReference(id uuid.UUID) string {
	return "deposit:" + id.String()
}

func withdrawalReference(id uuid.UUID) string {
	return "withdrawal:" + id.String()
}

func withdrawalReleaseReference(id uuid.UUID) string {
	return "wd-release:" + id.String()
}

// RequestDeposit records a pending deposit and returns the hand-off message
// the player sends to support along with their payment reference. Delivery of
// that message is outside the engine; the request is valid regardless.
func (s *Service) RequestDeposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, externalReference string) (*models.DepositRequest, string, error) {
	if !amount.IsPositive() {
		return nil, "", ErrInvalidAmount
	}
	if amount.LessThan(decimal.NewFromFloat(s.cfg.MinDeposit)) {
		return nil, "", ErrBelowMinimum
	}
	if externalReference == "" {
		externalReference = models.NewDepositReference()
	}
	if _, err := s.ledger.GetAccount(ctx, accountID); err != nil {
		return nil, "", err
	}

	req := &models.DepositRequest{
		ID:                uuid.New(),
		AccountID:         accountID,
		Amount:            amount,
		ExternalReference: externalReference,
		Status:            models.StatusPending,
		CreatedAt:         time.Now(),
	}
	if err := s.store.CreateDepositRequest(ctx, req); err != nil {
		if errors.Is(err, storage.ErrDuplicateRequest) {
			return nil, "", ErrDuplicateSubmission
		}
		return nil, "", fmt.Errorf("failed to create deposit request: %w", err)
	}

	handoff := fmt.Sprintf("I want to deposit rupees %s. Transaction ID: %s (support: %s)",
		amount.StringFixed(2), externalReference, s.cfg.SupportPhone)

	s.log.Info().
		Str("account_id", accountID.String()).
		Str("request_id", req.ID.String()).
		Str("amount", amount.String()).
		Msg("deposit request created")

	return req, handoff, nil
}

// ApproveDeposit credits the account once. The ledger reference is the request
// id, so approving twice (two admins, a retried call) applies the credit
// exactly once and returns the same result.
func (s *Service) ApproveDeposit(ctx context.Context, requestID uuid.UUID) (*models.DepositRequest, error) {
	req, err := s.getDeposit(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch req.Status {
	case models.StatusApproved:
		// Replay the credit: a no-op unless an earlier approval stopped
		// between the status write and the credit.
		if _, err := s.ledger.Adjust(ctx, req.AccountID, req.Amount, models.KindDeposit, depositReference(req.ID)); err != nil {
			return nil, fmt.Errorf("failed to credit deposit: %w", err)
		}
		return req, nil
	case models.StatusRejected:
		return nil, ErrRequestAlreadySettled
	}

	// The status transition decides the settlement; the credit follows it, so
	// a concurrent rejection can never leave a rejected request credited.
	now := time.Now()
	if err := s.store.UpdateDepositStatus(ctx, req.ID, models.StatusPending, models.StatusApproved, now); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			latest, lookupErr := s.getDeposit(ctx, requestID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if latest.Status == models.StatusApproved {
				if _, err := s.ledger.Adjust(ctx, latest.AccountID, latest.Amount, models.KindDeposit, depositReference(latest.ID)); err != nil {
					return nil, fmt.Errorf("failed to credit deposit: %w", err)
				}
				return latest, nil
			}
			return nil, ErrRequestAlreadySettled
		}
		return nil, err
	}
	req.Status = models.StatusApproved
	req.SettledAt = &now

	if _, err := s.ledger.Adjust(ctx, req.AccountID, req.Amount, models.KindDeposit, depositReference(req.ID)); err != nil {
		return nil, fmt.Errorf("failed to credit deposit: %w", err)
	}

	s.log.Info().Str("request_id", req.ID.String()).Msg("deposit approved")
	return req, nil
}

// RejectDeposit closes the request with no balance effect.
func (s *Service) RejectDeposit(ctx context.Context, requestID uuid.UUID) (*models.DepositRequest, error) {
	req, err := s.getDeposit(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch req.Status {
	case models.StatusRejected:
		return req, nil
	case models.StatusApproved:
		return nil, ErrRequestAlreadySettled
	}

	now := time.Now()
	if err := s.store.UpdateDepositStatus(ctx, req.ID, models.StatusPending, models.StatusRejected, now); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrRequestAlreadySettled
		}
		return nil, err
	}
	req.Status = models.StatusRejected
	req.SettledAt = &now
	return req, nil
}

func (s *Service) validateMethodDetails(req *models.WithdrawalCreateRequest) error {
	switch req.Method {
	case models.MethodUPI:
		if req.UPIHandle == "" {
			return ErrMissingMethodDetails
		}
	case models.MethodBank:
		if req.BankAccount == "" || req.BankIFSC == "" {
			return ErrMissingMethodDetails
		}
	case models.MethodCrypto:
		if req.CryptoAddress == "" {
			return ErrMissingMethodDetails
		}
	default:
		return ErrMissingMethodDetails
	}
	return nil
}

// RequestWithdrawal validates, computes the fee once, then debits the gross
// amount (the reservation) before the request becomes pending. Insufficient
// balance rejects before any state is written.
func (s *Service) RequestWithdrawal(ctx context.Context, accountID uuid.UUID, create *models.WithdrawalCreateRequest) (*models.WithdrawalRequest, error) {
	gross := create.Amount
	if !gross.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if gross.LessThan(decimal.NewFromFloat(s.cfg.MinWithdrawal)) {
		return nil, ErrBelowMinimum
	}
	if err := s.validateMethodDetails(create); err != nil {
		return nil, err
	}

	fee := gross.Mul(decimal.NewFromFloat(s.cfg.WithdrawalFeePct)).Round(2)
	req := &models.WithdrawalRequest{
		ID:            uuid.New(),
		AccountID:     accountID,
		GrossAmount:   gross,
		Fee:           fee,
		NetAmount:     gross.Sub(fee),
		Method:        create.Method,
		UPIHandle:     create.UPIHandle,
		BankAccount:   create.BankAccount,
		BankIFSC:      create.BankIFSC,
		CryptoAddress: create.CryptoAddress,
		Status:        models.StatusPending,
		CreatedAt:     time.Now(),
	}

	if _, err := s.ledger.Adjust(ctx, accountID, gross.Neg(), models.KindWithdrawal, withdrawalReference(req.ID)); err != nil {
		return nil, err
	}

	if err := s.store.CreateWithdrawalRequest(ctx, req); err != nil {
		// The reservation went through but the request row did not; hand the
		// money back before reporting the failure.
		if _, revErr := s.ledger.Adjust(ctx, accountID, gross, models.KindWithdrawal, withdrawalReleaseReference(req.ID)); revErr != nil {
			s.log.Error().Err(revErr).Str("request_id", req.ID.String()).Msg("failed to reverse orphaned reservation")
		}
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	s.log.Info().
		Str("account_id", accountID.String()).
		Str("request_id", req.ID.String()).
		Str("gross", gross.String()).
		Str("fee", fee.String()).
		Msg("withdrawal requested, funds reserved")

	return req, nil
}

// ProcessWithdrawal marks the payout as done. The funds already left the
// balance at creation, so there is no ledger mutation here.
func (s *Service) ProcessWithdrawal(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	req, err := s.getWithdrawal(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch req.Status {
	case models.StatusProcessed:
		return req, nil
	case models.StatusRejected, models.StatusCancelled:
		return nil, ErrRequestAlreadySettled
	}

	now := time.Now()
	if err := s.store.UpdateWithdrawalStatus(ctx, req.ID, models.StatusPending, models.StatusProcessed, now); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrRequestAlreadySettled
		}
		return nil, err
	}
	req.Status = models.StatusProcessed
	req.SettledAt = &now

	s.log.Info().Str("request_id", req.ID.String()).Msg("withdrawal processed")
	return req, nil
}

// RejectWithdrawal reverses the reservation. The release reference makes the
// credit idempotent, so re-rejecting is a no-op.
func (s *Service) RejectWithdrawal(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	return s.releaseWithdrawal(ctx, requestID, uuid.Nil, models.StatusRejected)
}

// CancelWithdrawal lets the owner withdraw the request before an admin acts
// on it; the reservation is reversed the same way a rejection does.
func (s *Service) CancelWithdrawal(ctx context.Context, accountID, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	return s.releaseWithdrawal(ctx, requestID, accountID, models.StatusCancelled)
}

func (s *Service) releaseWithdrawal(ctx context.Context, requestID, requireOwner uuid.UUID, to models.RequestStatus) (*models.WithdrawalRequest, error) {
	req, err := s.getWithdrawal(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if requireOwner != uuid.Nil && req.AccountID != requireOwner {
		return nil, ErrNotRequestOwner
	}

	switch req.Status {
	case to:
		// Replay the release credit: a no-op unless an earlier release
		// stopped between the status write and the credit.
		if _, err := s.ledger.Adjust(ctx, req.AccountID, req.GrossAmount, models.KindWithdrawal, withdrawalReleaseReference(req.ID)); err != nil {
			return nil, fmt.Errorf("failed to reverse reservation: %w", err)
		}
		return req, nil
	case models.StatusProcessed, models.StatusRejected, models.StatusCancelled:
		return nil, ErrRequestAlreadySettled
	}

	// Win the status transition before touching the ledger: if a concurrent
	// processor marks the request processed, the reservation stays spent.
	now := time.Now()
	if err := s.store.UpdateWithdrawalStatus(ctx, req.ID, models.StatusPending, to, now); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			latest, lookupErr := s.getWithdrawal(ctx, requestID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if latest.Status == to {
				if _, err := s.ledger.Adjust(ctx, latest.AccountID, latest.GrossAmount, models.KindWithdrawal, withdrawalReleaseReference(latest.ID)); err != nil {
					return nil, fmt.Errorf("failed to reverse reservation: %w", err)
				}
				return latest, nil
			}
			return nil, ErrRequestAlreadySettled
		}
		return nil, err
	}
	req.Status = to
	req.SettledAt = &now

	if _, err := s.ledger.Adjust(ctx, req.AccountID, req.GrossAmount, models.KindWithdrawal, withdrawalReleaseReference(req.ID)); err != nil {
		return nil, fmt.Errorf("failed to reverse reservation: %w", err)
	}

	s.log.Info().Str("request_id", req.ID.String()).Str("status", string(to)).Msg("withdrawal reservation released")
	return req, nil
}

func (s *Service) getDeposit(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error) {
	req, err := s.store.GetDepositRequest(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return req, err
}

func (s *Service) getWithdrawal(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	req, err := s.store.GetWithdrawalRequest(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return req, err
}

func (s *Service) PendingDeposits(ctx context.Context, limit int) ([]models.DepositRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.store.ListDepositsByStatus(ctx, models.StatusPending, limit)
}

func (s *Service) PendingWithdrawals(ctx context.Context, limit int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.store.ListWithdrawalsByStatus(ctx, models.StatusPending, limit)
}
