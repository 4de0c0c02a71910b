package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/game"
	"aviator-casino-backend/internal/models"
)

// Broadcaster receives phase and tick events for the live feeds. The no-op
// implementation keeps the scheduler usable without a transport attached.
type Broadcaster interface {
	PhaseChanged(gameType models.GameType, phase models.RoundPhase, snapshot *game.RoundSnapshot)
	Tick(gameType models.GameType, multiplier float64)
	RoundFinished(round *models.GameRound)
}

type NopBroadcaster struct{}

func (NopBroadcaster) PhaseChanged(models.GameType, models.RoundPhase, *game.RoundSnapshot) {}
func (NopBroadcaster) Tick(models.GameType, float64)                                       {}
func (NopBroadcaster) RoundFinished(*models.GameRound)                                     {}

type phaseTiming struct {
	bettingWindow time.Duration
	tickInterval  time.Duration
	resultDelay   time.Duration
	cooldown      time.Duration
}

// Scheduler drives the round lifecycle for each game type on its own
// goroutine: betting window, outcome resolution, settlement, result display,
// cooldown, then the next round. It is the only component that moves rounds
// between phases.
type Scheduler struct {
	engine    *game.Engine
	broadcast Broadcaster
	timings   map[models.GameType]phaseTiming
	log       zerolog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func New(engine *game.Engine, cfg config.GamesConfig, broadcast Broadcaster, log zerolog.Logger) *Scheduler {
	if broadcast == nil {
		broadcast = NopBroadcaster{}
	}
	return &Scheduler{
		engine:    engine,
		broadcast: broadcast,
		timings: map[models.GameType]phaseTiming{
			models.GameCrash: {
				bettingWindow: cfg.Crash.BettingWindow,
				tickInterval:  cfg.Crash.TickInterval,
				resultDelay:   cfg.Crash.ResultDelay,
				cooldown:      cfg.Crash.Cooldown,
			},
			models.GameColor: {
				bettingWindow: cfg.Color.BettingWindow,
				resultDelay:   cfg.Color.ResultDelay,
				cooldown:      cfg.Color.Cooldown,
			},
			models.GameRace: {
				bettingWindow: cfg.Race.BettingWindow,
				resultDelay:   cfg.Race.ResultDelay,
				cooldown:      cfg.Race.Cooldown,
			},
		},
		log:    log.With().Str("component", "scheduler").Logger(),
		stopCh: make(chan struct{}),
	}
}

// Start launches one lifecycle loop per game type. Loops exit when ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	for gameType := range s.timings {
		s.wg.Add(1)
		go s.runLoop(ctx, gameType)
	}
	s.log.Info().Msg("round scheduler started")
}

// Stop signals all loops and blocks until they have finished their current
// round step.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.log.Info().Msg("round scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, gameType models.GameType) {
	defer s.wg.Done()

	timing := s.timings[gameType]
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		if err := s.runRound(ctx, gameType, timing); err != nil {
			s.log.Error().Err(err).Str("game", string(gameType)).Msg("round failed")
			// A half-finished round would block every later OpenRound.
			// Refund its bets and clear it; if the store is still down this
			// repeats on the next pass.
			if abandonErr := s.engine.AbandonRound(ctx, gameType); abandonErr != nil {
				s.log.Error().Err(abandonErr).Str("game", string(gameType)).Msg("failed to abandon round")
			}
			if !s.sleep(ctx, timing.cooldown) {
				return
			}
		}
	}
}

func (s *Scheduler) runRound(ctx context.Context, gameType models.GameType, timing phaseTiming) error {
	round, err := s.engine.OpenRound(ctx, gameType)
	if err != nil {
		return err
	}
	s.broadcast.PhaseChanged(gameType, models.PhaseBetting, &game.RoundSnapshot{Round: *round})

	if !s.sleep(ctx, timing.bettingWindow) {
		return nil
	}

	if err := s.engine.CloseBetting(ctx, gameType); err != nil {
		return err
	}
	resolved, err := s.engine.Resolve(ctx, gameType)
	if err != nil {
		return err
	}
	s.broadcast.PhaseChanged(gameType, models.PhaseResolving, &game.RoundSnapshot{Round: *resolved})

	if gameType == models.GameCrash {
		if err := s.runFlight(ctx, timing.tickInterval); err != nil {
			return err
		}
	}

	if _, err := s.engine.SettleRound(ctx, gameType); err != nil {
		return err
	}

	snapshot, err := s.engine.CurrentRound(gameType)
	if err == nil {
		s.broadcast.PhaseChanged(gameType, models.PhaseResult, snapshot)
		s.broadcast.RoundFinished(&snapshot.Round)
	}

	if !s.sleep(ctx, timing.resultDelay) {
		return nil
	}

	s.engine.FinishRound(gameType)
	s.broadcast.PhaseChanged(gameType, models.PhaseIdle, nil)

	s.sleep(ctx, timing.cooldown)
	return nil
}

// runFlight advances the crash multiplier until the frozen crash point is
// reached, firing auto cashouts along the way.
func (s *Scheduler) runFlight(ctx context.Context, tickInterval time.Duration) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			multiplier, crashed, err := s.engine.CrashTick(ctx)
			if err != nil {
				return err
			}
			s.broadcast.Tick(models.GameCrash, multiplier)
			if crashed {
				return nil
			}
		}
	}
}

// sleep waits for d, returning false if the scheduler is shutting down.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}
