package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/game"
	"aviator-casino-backend/internal/models"
)

// Service keeps the volatile round state in redis: the current snapshot per
// game, a capped history of resolved rounds, and the rate-limit counters.
// Nothing here is a source of truth, postgres is; redis only serves the feeds.
type Service struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewService(cfg config.RedisConfig, log zerolog.Logger) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Service{
		client: client,
		log:    log.With().Str("component", "live").Logger(),
	}, nil
}

func (s *Service) Close() error {
	return s.client.Close()
}

func (s *Service) SaveSnapshot(ctx context.Context, gameType models.GameType, snapshot *game.RoundSnapshot) error {
	key := fmt.Sprintf(keyRoundState, gameType)
	if snapshot == nil {
		return s.client.Del(ctx, key).Err()
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttlRoundState).Err()
}

func (s *Service) GetSnapshot(ctx context.Context, gameType models.GameType) (*game.RoundSnapshot, error) {
	key := fmt.Sprintf(keyRoundState, gameType)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot game.RoundSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// RecordOutcome stores the resolved round and pushes it onto the per-game
// history, trimmed to the last 100 rounds.
func (s *Service) RecordOutcome(ctx context.Context, round *models.GameRound) error {
	data, err := json.Marshal(round)
	if err != nil {
		return err
	}

	roundKey := fmt.Sprintf(keyRound, round.ID)
	if err := s.client.Set(ctx, roundKey, data, ttlRound).Err(); err != nil {
		return fmt.Errorf("failed to store round: %w", err)
	}

	historyKey := fmt.Sprintf(keyRoundHistory, round.GameType)
	if err := s.client.ZAdd(ctx, historyKey, redis.Z{
		Score:  float64(round.OpenedAt.Unix()),
		Member: round.ID.String(),
	}).Err(); err != nil {
		return fmt.Errorf("failed to append round history: %w", err)
	}

	s.client.ZRemRangeByRank(ctx, historyKey, 0, -(historyDepth + 1))

	return nil
}

func (s *Service) RecentOutcomes(ctx context.Context, gameType models.GameType, limit int64) ([]*models.GameRound, error) {
	if limit <= 0 || limit > historyDepth {
		limit = 20
	}

	historyKey := fmt.Sprintf(keyRoundHistory, gameType)
	roundIDs, err := s.client.ZRevRange(ctx, historyKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read round history: %w", err)
	}

	var rounds []*models.GameRound
	for _, roundID := range roundIDs {
		data, err := s.client.Get(ctx, fmt.Sprintf(keyRound, roundID)).Result()
		if err != nil {
			continue
		}

		var round models.GameRound
		if err := json.Unmarshal([]byte(data), &round); err != nil {
			continue
		}
		rounds = append(rounds, &round)
	}

	return rounds, nil
}

// CheckRateLimit counts actions in a fixed window. Returns false once the
// account has exceeded limit calls within the window.
func (s *Service) CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(keyRateLimit, accountID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}
