package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aviator-casino-backend/internal/models"
)

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.TransactionRecord{},
		&models.DepositRequest{},
		&models.WithdrawalRequest{},
		&models.ReferralBonus{},
		&models.GameRound{},
		&models.Bet{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) CreateAccount(ctx context.Context, account *models.Account) error {
	return s.db.WithContext(ctx).Create(account).Error
}

func (s *PostgresStore) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *PostgresStore) GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).First(&account, "referral_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *PostgresStore) ApplyAdjustment(ctx context.Context, account *models.Account, rec *models.TransactionRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("id = ? AND version = ?", account.ID, account.Version).
			Updates(map[string]interface{}{
				"balance": account.Balance,
				"version": gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleAccount
		}
		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReference
			}
			return err
		}
		return nil
	})
}

func (s *PostgresStore) GetTransactionByReference(ctx context.Context, accountID uuid.UUID, reference string) (*models.TransactionRecord, error) {
	var rec models.TransactionRecord
	err := s.db.WithContext(ctx).
		First(&rec, "account_id = ? AND reference = ?", accountID, reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.TransactionRecord, error) {
	var recs []models.TransactionRecord
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

func (s *PostgresStore) CreateDepositRequest(ctx context.Context, req *models.DepositRequest) error {
	err := s.db.WithContext(ctx).Create(req).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateRequest
	}
	return err
}

func (s *PostgresStore) GetDepositRequest(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error) {
	var req models.DepositRequest
	err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *PostgresStore) UpdateDepositStatus(ctx context.Context, id uuid.UUID, from, to models.RequestStatus, settledAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.DepositRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "settled_at": settledAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) ListDepositsByStatus(ctx context.Context, status models.RequestStatus, limit int) ([]models.DepositRequest, error) {
	var reqs []models.DepositRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

func (s *PostgresStore) CreateWithdrawalRequest(ctx context.Context, req *models.WithdrawalRequest) error {
	return s.db.WithContext(ctx).Create(req).Error
}

func (s *PostgresStore) GetWithdrawalRequest(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *PostgresStore) UpdateWithdrawalStatus(ctx context.Context, id uuid.UUID, from, to models.RequestStatus, settledAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "settled_at": settledAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) ListWithdrawalsByStatus(ctx context.Context, status models.RequestStatus, limit int) ([]models.WithdrawalRequest, error) {
	var reqs []models.WithdrawalRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

func (s *PostgresStore) CreateReferralBonus(ctx context.Context, bonus *models.ReferralBonus) error {
	err := s.db.WithContext(ctx).Create(bonus).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyClaimed
	}
	return err
}

func (s *PostgresStore) DeleteReferralBonus(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&models.ReferralBonus{}, "id = ?", id).Error
}

func (s *PostgresStore) CreateRound(ctx context.Context, round *models.GameRound) error {
	return s.db.WithContext(ctx).Create(round).Error
}

func (s *PostgresStore) GetRound(ctx context.Context, id uuid.UUID) (*models.GameRound, error) {
	var round models.GameRound
	err := s.db.WithContext(ctx).First(&round, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *PostgresStore) UpdateRound(ctx context.Context, round *models.GameRound) error {
	return s.db.WithContext(ctx).Save(round).Error
}

func (s *PostgresStore) ListRecentRounds(ctx context.Context, gameType models.GameType, limit int) ([]models.GameRound, error) {
	var rounds []models.GameRound
	err := s.db.WithContext(ctx).
		Where("game_type = ? AND resolved_at IS NOT NULL", gameType).
		Order("opened_at DESC").
		Limit(limit).
		Find(&rounds).Error
	return rounds, err
}

func (s *PostgresStore) CreateBet(ctx context.Context, bet *models.Bet) error {
	return s.db.WithContext(ctx).Create(bet).Error
}

func (s *PostgresStore) GetBet(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	var bet models.Bet
	err := s.db.WithContext(ctx).First(&bet, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

func (s *PostgresStore) UpdateBet(ctx context.Context, bet *models.Bet) error {
	return s.db.WithContext(ctx).Save(bet).Error
}

func (s *PostgresStore) ListBetsByRound(ctx context.Context, roundID uuid.UUID) ([]*models.Bet, error) {
	var bets []*models.Bet
	err := s.db.WithContext(ctx).
		Where("round_id = ?", roundID).
		Order("created_at ASC").
		Find(&bets).Error
	return bets, err
}
