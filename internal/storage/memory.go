package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"aviator-casino-backend/internal/models"
)

// MemoryStore is an in-memory Store with the same constraint and atomicity
// semantics as the postgres implementation. It backs the test suite and local
// development without infrastructure.
type MemoryStore struct {
	mu sync.RWMutex

	accounts     map[uuid.UUID]*models.Account
	transactions map[uuid.UUID]*models.TransactionRecord
	txByRef      map[string]uuid.UUID // accountID + "\x00" + reference
	deposits     map[uuid.UUID]*models.DepositRequest
	withdrawals  map[uuid.UUID]*models.WithdrawalRequest
	referrals    map[uuid.UUID]*models.ReferralBonus
	referralPair map[string]uuid.UUID // referrerID + "\x00" + referredID
	rounds       map[uuid.UUID]*models.GameRound
	bets         map[uuid.UUID]*models.Bet
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[uuid.UUID]*models.Account),
		transactions: make(map[uuid.UUID]*models.TransactionRecord),
		txByRef:      make(map[string]uuid.UUID),
		deposits:     make(map[uuid.UUID]*models.DepositRequest),
		withdrawals:  make(map[uuid.UUID]*models.WithdrawalRequest),
		referrals:    make(map[uuid.UUID]*models.ReferralBonus),
		referralPair: make(map[string]uuid.UUID),
		rounds:       make(map[uuid.UUID]*models.GameRound),
		bets:         make(map[uuid.UUID]*models.Bet),
	}
}

var _ Store = (*MemoryStore)(nil)

func refKey(accountID uuid.UUID, reference string) string {
	return accountID.String() + "\x00" + reference
}

func pairKey(referrerID, referredID uuid.UUID) string {
	return referrerID.String() + "\x00" + referredID.String()
}

func (s *MemoryStore) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *MemoryStore) GetAccountByReferralCode(_ context.Context, code string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.ReferralCode == code {
			cp := *account
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *MemoryStore) ApplyAdjustment(_ context.Context, account *models.Account, rec *models.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[account.ID]
	if !ok {
		return ErrAccountNotFound
	}
	if stored.Version != account.Version {
		return ErrStaleAccount
	}
	if _, dup := s.txByRef[refKey(rec.AccountID, rec.Reference)]; dup {
		return ErrDuplicateReference
	}

	stored.Balance = account.Balance
	stored.Version++
	stored.UpdatedAt = time.Now()

	cp := *rec
	s.transactions[rec.ID] = &cp
	s.txByRef[refKey(rec.AccountID, rec.Reference)] = rec.ID
	return nil
}

func (s *MemoryStore) GetTransactionByReference(_ context.Context, accountID uuid.UUID, reference string) (*models.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.txByRef[refKey(accountID, reference)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.transactions[id]
	return &cp, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, accountID uuid.UUID, limit int) ([]models.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var recs []models.TransactionRecord
	for _, rec := range s.transactions {
		if rec.AccountID == accountID {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (s *MemoryStore) CreateDepositRequest(_ context.Context, req *models.DepositRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.deposits {
		if existing.AccountID == req.AccountID && existing.ExternalReference == req.ExternalReference {
			return ErrDuplicateRequest
		}
	}
	cp := *req
	s.deposits[req.ID] = &cp
	return nil
}

func (s *MemoryStore) GetDepositRequest(_ context.Context, id uuid.UUID) (*models.DepositRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.deposits[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *MemoryStore) UpdateDepositStatus(_ context.Context, id uuid.UUID, from, to models.RequestStatus, settledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.deposits[id]
	if !ok || req.Status != from {
		return ErrConflict
	}
	req.Status = to
	req.SettledAt = &settledAt
	return nil
}

func (s *MemoryStore) ListDepositsByStatus(_ context.Context, status models.RequestStatus, limit int) ([]models.DepositRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reqs []models.DepositRequest
	for _, req := range s.deposits {
		if req.Status == status {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
	if limit > 0 && len(reqs) > limit {
		reqs = reqs[:limit]
	}
	return reqs, nil
}

func (s *MemoryStore) CreateWithdrawalRequest(_ context.Context, req *models.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.withdrawals[req.ID] = &cp
	return nil
}

func (s *MemoryStore) GetWithdrawalRequest(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.withdrawals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *MemoryStore) UpdateWithdrawalStatus(_ context.Context, id uuid.UUID, from, to models.RequestStatus, settledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.withdrawals[id]
	if !ok || req.Status != from {
		return ErrConflict
	}
	req.Status = to
	req.SettledAt = &settledAt
	return nil
}

func (s *MemoryStore) ListWithdrawalsByStatus(_ context.Context, status models.RequestStatus, limit int) ([]models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reqs []models.WithdrawalRequest
	for _, req := range s.withdrawals {
		if req.Status == status {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
	if limit > 0 && len(reqs) > limit {
		reqs = reqs[:limit]
	}
	return reqs, nil
}

func (s *MemoryStore) CreateReferralBonus(_ context.Context, bonus *models.ReferralBonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(bonus.ReferrerID, bonus.ReferredID)
	if _, dup := s.referralPair[key]; dup {
		return ErrAlreadyClaimed
	}
	cp := *bonus
	s.referrals[bonus.ID] = &cp
	s.referralPair[key] = bonus.ID
	return nil
}

func (s *MemoryStore) DeleteReferralBonus(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bonus, ok := s.referrals[id]
	if !ok {
		return nil
	}
	delete(s.referralPair, pairKey(bonus.ReferrerID, bonus.ReferredID))
	delete(s.referrals, id)
	return nil
}

func (s *MemoryStore) CreateRound(_ context.Context, round *models.GameRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *round
	s.rounds[round.ID] = &cp
	return nil
}

func (s *MemoryStore) GetRound(_ context.Context, id uuid.UUID) (*models.GameRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	round, ok := s.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *round
	return &cp, nil
}

func (s *MemoryStore) UpdateRound(_ context.Context, round *models.GameRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *round
	s.rounds[round.ID] = &cp
	return nil
}

func (s *MemoryStore) ListRecentRounds(_ context.Context, gameType models.GameType, limit int) ([]models.GameRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rounds []models.GameRound
	for _, round := range s.rounds {
		if round.GameType == gameType && round.Resolved() {
			rounds = append(rounds, *round)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].OpenedAt.After(rounds[j].OpenedAt) })
	if limit > 0 && len(rounds) > limit {
		rounds = rounds[:limit]
	}
	return rounds, nil
}

func (s *MemoryStore) CreateBet(_ context.Context, bet *models.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *bet
	s.bets[bet.ID] = &cp
	return nil
}

func (s *MemoryStore) GetBet(_ context.Context, id uuid.UUID) (*models.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bet, ok := s.bets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *bet
	return &cp, nil
}

func (s *MemoryStore) UpdateBet(_ context.Context, bet *models.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *bet
	s.bets[bet.ID] = &cp
	return nil
}

func (s *MemoryStore) ListBetsByRound(_ context.Context, roundID uuid.UUID) ([]*models.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bets []*models.Bet
	for _, bet := range s.bets {
		if bet.RoundID == roundID {
			cp := *bet
			bets = append(bets, &cp)
		}
	}
	sort.Slice(bets, func(i, j int) bool { return bets[i].CreatedAt.Before(bets[j].CreatedAt) })
	return bets, nil
}
