package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/ledger"
	"aviator-casino-backend/internal/models"
	"aviator-casino-backend/internal/storage"
)

// Engine runs the shared place-bet / resolve / settle protocol for all three
// games. One round per game type is live at a time; the scheduler drives the
// phase transitions and is the only caller of CloseBetting, Resolve,
// CrashTick and SettleRound.
type Engine struct {
	store  storage.Store
	ledger *ledger.Service
	cfg    config.GamesConfig
	fair   *Fair
	log    zerolog.Logger

	mu      sync.Mutex
	current map[models.GameType]*liveRound
	nonces  map[models.GameType]int64
}

type liveRound struct {
	round      *models.GameRound
	multiplier float64
}

func NewEngine(store storage.Store, ledgerSvc *ledger.Service, cfg config.GamesConfig, serverSeed string, log zerolog.Logger) *Engine {
	return &Engine{
		store:   store,
		ledger:  ledgerSvc,
		cfg:     cfg,
		fair:    NewFair(serverSeed),
		log:     log.With().Str("component", "game").Logger(),
		current: make(map[models.GameType]*liveRound),
		nonces:  make(map[models.GameType]int64),
	}
}

func betReference(id uuid.UUID) string {
	return "bet:" + id.String()
}

func betReleaseReference(id uuid.UUID) string {
	return "bet-release:" + id.String()
}

func settleReference(id uuid.UUID) string {
	return "settle:" + id.String()
}

// OpenRound starts the betting window for a new round. Fails if the previous
// round for this game type has not been finished yet.
func (e *Engine) OpenRound(ctx context.Context, gameType models.GameType) (*models.GameRound, error) {
	e.mu.Lock()
	if _, active := e.current[gameType]; active {
		e.mu.Unlock()
		return nil, ErrRoundActive
	}
	e.nonces[gameType]++
	nonce := e.nonces[gameType]
	e.mu.Unlock()

	round := &models.GameRound{
		ID:             uuid.New(),
		GameType:       gameType,
		Nonce:          nonce,
		Phase:          models.PhaseBetting,
		ServerSeedHash: e.fair.SeedHash(),
		OpenedAt:       time.Now(),
	}
	if err := e.store.CreateRound(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	e.mu.Lock()
	e.current[gameType] = &liveRound{round: round, multiplier: 1.0}
	e.mu.Unlock()

	e.log.Debug().Str("game", string(gameType)).Str("round_id", round.ID.String()).Msg("round opened")
	return round, nil
}

// RoundSnapshot is the read-only view handlers and the live feed expose.
type RoundSnapshot struct {
	Round      models.GameRound `json:"round"`
	Multiplier float64          `json:"multiplier,omitempty"`
}

func (e *Engine) CurrentRound(gameType models.GameType) (*RoundSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lr, ok := e.current[gameType]
	if !ok {
		return nil, ErrNoActiveRound
	}
	return &RoundSnapshot{Round: *lr.round, Multiplier: lr.multiplier}, nil
}

func (e *Engine) betLimits(gameType models.GameType) (float64, float64) {
	switch gameType {
	case models.GameCrash:
		return e.cfg.Crash.MinBet, e.cfg.Crash.MaxBet
	case models.GameColor:
		return e.cfg.Color.MinBet, e.cfg.Color.MaxBet
	default:
		return e.cfg.Race.MinBet, e.cfg.Race.MaxBet
	}
}

func (e *Engine) validateSelection(req *models.BetRequest) error {
	switch req.GameType {
	case models.GameColor:
		if req.Color != "" && !e.validColor(req.Color) {
			return fmt.Errorf("%w: unknown color %q", ErrInvalidBet, req.Color)
		}
		if req.Number != 0 && (req.Number < 1 || req.Number > e.cfg.Color.NumberRange) {
			return fmt.Errorf("%w: number out of range", ErrInvalidBet)
		}
	case models.GameRace:
		if _, ok := e.raceMultiplier(req.Competitor); !ok {
			return fmt.Errorf("%w: unknown competitor %q", ErrInvalidBet, req.Competitor)
		}
	}
	return nil
}

// PlaceBet debits the stake through the ledger and records the bet against
// the current round. Rejected if no betting window is open or the stake is
// outside the configured limits; insufficient balance surfaces from the
// ledger before any state changes.
func (e *Engine) PlaceBet(ctx context.Context, accountID uuid.UUID, req *models.BetRequest) (*models.Bet, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}
	if err := e.validateSelection(req); err != nil {
		return nil, err
	}

	minBet, maxBet := e.betLimits(req.GameType)
	if req.Amount.LessThan(decimal.NewFromFloat(minBet)) || req.Amount.GreaterThan(decimal.NewFromFloat(maxBet)) {
		return nil, fmt.Errorf("%w: stake outside limits", ErrInvalidBet)
	}

	e.mu.Lock()
	lr, ok := e.current[req.GameType]
	if !ok || lr.round.Phase != models.PhaseBetting {
		e.mu.Unlock()
		return nil, ErrWindowClosed
	}
	roundID := lr.round.ID
	e.mu.Unlock()

	bet := &models.Bet{
		ID:          uuid.New(),
		RoundID:     roundID,
		AccountID:   accountID,
		GameType:    req.GameType,
		Amount:      req.Amount,
		Color:       req.Color,
		Number:      req.Number,
		Competitor:  req.Competitor,
		AutoCashout: req.AutoCashout,
		CreatedAt:   time.Now(),
	}

	if _, err := e.ledger.Adjust(ctx, accountID, req.Amount.Neg(), models.KindBet, betReference(bet.ID)); err != nil {
		return nil, err
	}

	if err := e.store.CreateBet(ctx, bet); err != nil {
		if _, revErr := e.ledger.Adjust(ctx, accountID, req.Amount, models.KindBet, betReleaseReference(bet.ID)); revErr != nil {
			e.log.Error().Err(revErr).Str("bet_id", bet.ID.String()).Msg("failed to refund orphaned stake")
		}
		return nil, fmt.Errorf("failed to record bet: %w", err)
	}

	// The debit and the row write run outside the round lock; the window may
	// have closed while they were in flight. A bet that settlement can no
	// longer see must be voided, or the stake is debited forever.
	e.mu.Lock()
	lr, ok = e.current[req.GameType]
	open := ok && lr.round.ID == roundID && lr.round.Phase == models.PhaseBetting
	e.mu.Unlock()
	if !open {
		if stored, err := e.store.GetBet(ctx, bet.ID); err == nil && stored.Settled {
			// Settlement raced in first and already picked the bet up.
			return stored, nil
		}
		if _, err := e.ledger.Adjust(ctx, accountID, req.Amount, models.KindBet, betReleaseReference(bet.ID)); err != nil {
			e.log.Error().Err(err).Str("bet_id", bet.ID.String()).Msg("failed to refund late bet")
		}
		now := time.Now()
		bet.Settled = true
		bet.SettledAt = &now
		if err := e.store.UpdateBet(ctx, bet); err != nil {
			e.log.Error().Err(err).Str("bet_id", bet.ID.String()).Msg("failed to void late bet")
		}
		return nil, ErrWindowClosed
	}

	e.log.Debug().
		Str("game", string(req.GameType)).
		Str("bet_id", bet.ID.String()).
		Str("account_id", accountID.String()).
		Str("amount", req.Amount.String()).
		Msg("bet placed")

	return bet, nil
}

// CloseBetting ends the betting window; bets arriving after this are
// rejected with ErrWindowClosed.
func (e *Engine) CloseBetting(ctx context.Context, gameType models.GameType) error {
	e.mu.Lock()
	lr, ok := e.current[gameType]
	if !ok {
		e.mu.Unlock()
		return ErrNoActiveRound
	}
	lr.round.Phase = models.PhaseResolving
	round := *lr.round
	e.mu.Unlock()

	return e.store.UpdateRound(ctx, &round)
}

// Resolve samples the round outcome and freezes it. Calling Resolve again for
// the same round returns the frozen outcome without resampling.
func (e *Engine) Resolve(ctx context.Context, gameType models.GameType) (*models.GameRound, error) {
	e.mu.Lock()
	lr, ok := e.current[gameType]
	if !ok {
		e.mu.Unlock()
		return nil, ErrNoActiveRound
	}
	if lr.round.Resolved() {
		round := *lr.round
		e.mu.Unlock()
		return &round, nil
	}

	roundID := lr.round.ID.String()
	switch gameType {
	case models.GameCrash:
		lr.round.CrashPoint = sampleCrashPoint(e.fair, e.cfg.Crash, roundID, lr.round.Nonce)
	case models.GameColor:
		lr.round.ResultColor, lr.round.ResultNumber = sampleColorOutcome(e.fair, e.cfg.Color, roundID, lr.round.Nonce)
	case models.GameRace:
		lr.round.Ranking = strings.Join(sampleRanking(e.fair, e.cfg.Race, roundID, lr.round.Nonce), ",")
	}
	now := time.Now()
	lr.round.ResolvedAt = &now
	round := *lr.round
	e.mu.Unlock()

	if err := e.store.UpdateRound(ctx, &round); err != nil {
		return nil, fmt.Errorf("failed to freeze outcome: %w", err)
	}

	e.log.Info().
		Str("game", string(gameType)).
		Str("round_id", round.ID.String()).
		Float64("crash_point", round.CrashPoint).
		Str("color", round.ResultColor).
		Int("number", round.ResultNumber).
		Str("ranking", round.Ranking).
		Msg("round resolved")

	return &round, nil
}

// CrashTick advances the crash flight by one multiplier step, fires any auto
// cashouts whose threshold has been reached, and reports whether the round
// has hit its crash point.
func (e *Engine) CrashTick(ctx context.Context) (float64, bool, error) {
	e.mu.Lock()
	lr, ok := e.current[models.GameCrash]
	if !ok {
		e.mu.Unlock()
		return 0, false, ErrNoActiveRound
	}
	if !lr.round.Resolved() {
		e.mu.Unlock()
		return 0, false, ErrRoundNotResolved
	}

	lr.multiplier += e.cfg.Crash.MultiplierStep
	multiplier := lr.multiplier
	crashPoint := lr.round.CrashPoint
	roundID := lr.round.ID
	e.mu.Unlock()

	crashed := multiplier >= crashPoint

	if !crashed {
		bets, err := e.store.ListBetsByRound(ctx, roundID)
		if err != nil {
			return multiplier, false, err
		}
		for _, bet := range bets {
			if bet.Settled || bet.AutoCashout == 0 || bet.AutoCashout > multiplier {
				continue
			}
			// Threshold reached: pay deterministically at the threshold.
			if err := e.settleBet(ctx, bet, true, bet.AutoCashout); err != nil {
				e.log.Error().Err(err).Str("bet_id", bet.ID.String()).Msg("auto cashout failed")
			}
		}
	}

	return multiplier, crashed, nil
}

// Cashout settles one crash bet at the current multiplier, before the crash
// point is reached. Cashing out a bet that is already settled returns the
// stored result.
func (e *Engine) Cashout(ctx context.Context, accountID, betID uuid.UUID) (*models.Bet, error) {
	bet, err := e.store.GetBet(ctx, betID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBetNotFound
		}
		return nil, err
	}
	if bet.AccountID != accountID {
		return nil, ErrNotBetOwner
	}
	if bet.GameType != models.GameCrash {
		return nil, fmt.Errorf("%w: cashout only applies to crash bets", ErrInvalidBet)
	}
	if bet.Settled {
		return bet, nil
	}

	e.mu.Lock()
	lr, ok := e.current[models.GameCrash]
	if !ok || lr.round.ID != bet.RoundID || !lr.round.Resolved() {
		e.mu.Unlock()
		return nil, ErrWindowClosed
	}
	multiplier := lr.multiplier
	crashPoint := lr.round.CrashPoint
	e.mu.Unlock()

	if multiplier >= crashPoint {
		return nil, ErrWindowClosed
	}

	if err := e.settleBet(ctx, bet, true, multiplier); err != nil {
		return nil, err
	}
	return bet, nil
}

// SettlementSummary reports what a SettleRound pass did.
type SettlementSummary struct {
	RoundID     uuid.UUID
	Settled     int
	Winners     int
	TotalPayout decimal.Decimal
}

// SettleRound settles every not-yet-settled bet of the current round against
// the frozen outcome. For crash, winners were already settled during the
// flight, so everything left loses. Safe to call more than once: settled bets
// are skipped and the payout reference makes the credit idempotent anyway.
func (e *Engine) SettleRound(ctx context.Context, gameType models.GameType) (*SettlementSummary, error) {
	e.mu.Lock()
	lr, ok := e.current[gameType]
	if !ok {
		e.mu.Unlock()
		return nil, ErrNoActiveRound
	}
	if !lr.round.Resolved() {
		e.mu.Unlock()
		return nil, ErrRoundNotResolved
	}
	round := *lr.round
	e.mu.Unlock()

	bets, err := e.store.ListBetsByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}

	summary := &SettlementSummary{RoundID: round.ID, TotalPayout: decimal.Zero}
	for _, bet := range bets {
		if bet.Settled {
			continue
		}

		won := false
		multiplier := 0.0
		switch gameType {
		case models.GameCrash:
			// Still unsettled at crash means the stake is forfeit.
		case models.GameColor:
			multiplier, won = colorPayout(e.cfg.Color, bet, round.ResultColor, round.ResultNumber)
		case models.GameRace:
			if bet.Competitor == raceWinner(round.Ranking) {
				multiplier, won = e.raceMultiplier(bet.Competitor)
			}
		}

		if err := e.settleBet(ctx, bet, won, multiplier); err != nil {
			return nil, fmt.Errorf("failed to settle bet %s: %w", bet.ID, err)
		}
		summary.Settled++
		if won {
			summary.Winners++
			summary.TotalPayout = summary.TotalPayout.Add(bet.Payout)
		}
	}

	e.mu.Lock()
	if lr, ok := e.current[gameType]; ok && lr.round.ID == round.ID {
		lr.round.Phase = models.PhaseResult
		round = *lr.round
	}
	e.mu.Unlock()
	if err := e.store.UpdateRound(ctx, &round); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("game", string(gameType)).
		Str("round_id", round.ID.String()).
		Int("settled", summary.Settled).
		Int("winners", summary.Winners).
		Str("total_payout", summary.TotalPayout.String()).
		Msg("round settled")

	return summary, nil
}

// settleBet applies the outcome of one bet exactly once. The payout credit
// uses the bet id as idempotency reference, so a replayed settlement cannot
// double-pay even across processes.
func (e *Engine) settleBet(ctx context.Context, bet *models.Bet, won bool, multiplier float64) error {
	if bet.Settled {
		return nil
	}

	payout := decimal.Zero
	if won {
		payout = bet.Amount.Mul(decimal.NewFromFloat(multiplier)).Round(2)
		if _, err := e.ledger.Adjust(ctx, bet.AccountID, payout, models.KindPayout, settleReference(bet.ID)); err != nil {
			return err
		}
	}

	now := time.Now()
	bet.Settled = true
	bet.Won = won
	bet.CashoutMultiplier = multiplier
	bet.Payout = payout
	bet.SettledAt = &now
	return e.store.UpdateBet(ctx, bet)
}

// FinishRound drops the round from the live table so the next one can open.
// The persisted record keeps the result phase for history.
func (e *Engine) FinishRound(gameType models.GameType) {
	e.mu.Lock()
	delete(e.current, gameType)
	e.mu.Unlock()
}

// AbandonRound refunds every unsettled bet of the current round and removes
// the round from the live table so the next one can open. Used when a round
// cannot be completed.
func (e *Engine) AbandonRound(ctx context.Context, gameType models.GameType) error {
	e.mu.Lock()
	lr, ok := e.current[gameType]
	if !ok {
		e.mu.Unlock()
		return nil
	}
	round := *lr.round
	e.mu.Unlock()

	bets, err := e.store.ListBetsByRound(ctx, round.ID)
	if err != nil {
		return err
	}
	refunded := 0
	for _, bet := range bets {
		if bet.Settled {
			continue
		}
		if _, err := e.ledger.Adjust(ctx, bet.AccountID, bet.Amount, models.KindBet, betReleaseReference(bet.ID)); err != nil {
			return fmt.Errorf("failed to refund bet %s: %w", bet.ID, err)
		}
		now := time.Now()
		bet.Settled = true
		bet.SettledAt = &now
		if err := e.store.UpdateBet(ctx, bet); err != nil {
			return err
		}
		refunded++
	}

	e.mu.Lock()
	delete(e.current, gameType)
	e.mu.Unlock()

	e.log.Warn().
		Str("game", string(gameType)).
		Str("round_id", round.ID.String()).
		Int("refunded", refunded).
		Msg("round abandoned")
	return nil
}

// RecentRounds exposes resolved round history for the result feeds.
func (e *Engine) RecentRounds(ctx context.Context, gameType models.GameType, limit int) ([]models.GameRound, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return e.store.ListRecentRounds(ctx, gameType, limit)
}
