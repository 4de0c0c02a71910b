package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aviator-casino-backend/internal/models"
)

// Store is the transactional persistence boundary for the engine. Both the
// postgres implementation and the in-memory implementation used by tests
// provide the same guarantees: ApplyAdjustment commits the balance write and
// the transaction record atomically, and the unique constraints on idempotency
// keys are enforced at write time.
type Store interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error)

	// ApplyAdjustment persists account (balance already updated by the caller)
	// and appends rec in one atomic unit. Returns ErrDuplicateReference if the
	// (account_id, reference) pair already exists, ErrStaleAccount if the
	// account version moved underneath the caller.
	ApplyAdjustment(ctx context.Context, account *models.Account, rec *models.TransactionRecord) error
	GetTransactionByReference(ctx context.Context, accountID uuid.UUID, reference string) (*models.TransactionRecord, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.TransactionRecord, error)

	CreateDepositRequest(ctx context.Context, req *models.DepositRequest) error
	GetDepositRequest(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error)
	// UpdateDepositStatus is a compare-and-set on status; returns ErrConflict
	// if the request is no longer in the `from` status.
	UpdateDepositStatus(ctx context.Context, id uuid.UUID, from, to models.RequestStatus, settledAt time.Time) error
	ListDepositsByStatus(ctx context.Context, status models.RequestStatus, limit int) ([]models.DepositRequest, error)

	CreateWithdrawalRequest(ctx context.Context, req *models.WithdrawalRequest) error
	GetWithdrawalRequest(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, from, to models.RequestStatus, settledAt time.Time) error
	ListWithdrawalsByStatus(ctx context.Context, status models.RequestStatus, limit int) ([]models.WithdrawalRequest, error)

	// CreateReferralBonus returns ErrAlreadyClaimed if a bonus for the same
	// (referrer, referred) pair already exists.
	CreateReferralBonus(ctx context.Context, bonus *models.ReferralBonus) error
	DeleteReferralBonus(ctx context.Context, id uuid.UUID) error

	CreateRound(ctx context.Context, round *models.GameRound) error
	GetRound(ctx context.Context, id uuid.UUID) (*models.GameRound, error)
	UpdateRound(ctx context.Context, round *models.GameRound) error
	ListRecentRounds(ctx context.Context, gameType models.GameType, limit int) ([]models.GameRound, error)

	CreateBet(ctx context.Context, bet *models.Bet) error
	GetBet(ctx context.Context, id uuid.UUID) (*models.Bet, error)
	UpdateBet(ctx context.Context, bet *models.Bet) error
	ListBetsByRound(ctx context.Context, roundID uuid.UUID) ([]*models.Bet, error)
}
