package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/game"
	"aviator-casino-backend/internal/handlers"
	"aviator-casino-backend/internal/ledger"
	"aviator-casino-backend/internal/models"
	"aviator-casino-backend/internal/storage"
)

type stubFeed struct {
	snapshot *game.RoundSnapshot
	rounds   []*models.GameRound
}

func (f *stubFeed) GetSnapshot(context.Context, models.GameType) (*game.RoundSnapshot, error) {
	return f.snapshot, nil
}

func (f *stubFeed) RecentOutcomes(context.Context, models.GameType, int64) ([]*models.GameRound, error) {
	return f.rounds, nil
}

func gameRouter(t *testing.T, feed handlers.RoundFeed) (*gin.Engine, *game.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStore()
	ledgerSvc := ledger.NewService(store, zerolog.Nop())
	engine := game.NewEngine(store, ledgerSvc, config.GamesConfig{
		Color: config.ColorConfig{
			Colors:           []string{"green"},
			Weights:          map[string]float64{"green": 1.0},
			ColorMultipliers: map[string]float64{"green": 2.0},
			NumberRange:      10,
			MinBet:           10,
			MaxBet:           10000,
		},
	}, "test-seed", zerolog.Nop())

	h := handlers.NewGameHandler(engine, feed)
	router := gin.New()
	router.GET("/games/:game/round", h.CurrentRound)
	router.GET("/games/:game/rounds", h.RecentRounds)
	return router, engine
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestCurrentRoundFallsBackToFeedSnapshot(t *testing.T) {
	cached := &game.RoundSnapshot{Round: models.GameRound{
		ID:       uuid.New(),
		GameType: models.GameColor,
		Phase:    models.PhaseBetting,
		OpenedAt: time.Now(),
	}}
	router, _ := gameRouter(t, &stubFeed{snapshot: cached})

	w := get(t, router, "/games/color/round")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from cached snapshot, got %d", w.Code)
	}
	var got game.RoundSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if got.Round.ID != cached.Round.ID {
		t.Errorf("Expected cached round %s, got %s", cached.Round.ID, got.Round.ID)
	}
}

func TestCurrentRoundWithoutRoundOrSnapshotConflicts(t *testing.T) {
	router, _ := gameRouter(t, &stubFeed{})

	w := get(t, router, "/games/color/round")
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409 with no live or cached round, got %d", w.Code)
	}
}

func TestRecentRoundsServedFromFeed(t *testing.T) {
	cachedID := uuid.New()
	router, _ := gameRouter(t, &stubFeed{rounds: []*models.GameRound{{
		ID:       cachedID,
		GameType: models.GameColor,
		Phase:    models.PhaseResult,
		OpenedAt: time.Now(),
	}}})

	w := get(t, router, "/games/color/rounds")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Rounds []models.GameRound `json:"rounds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	if len(body.Rounds) != 1 || body.Rounds[0].ID != cachedID {
		t.Errorf("History should come from the cache, got %+v", body.Rounds)
	}
}

func TestRecentRoundsFallsBackToStoreWhenFeedEmpty(t *testing.T) {
	router, engine := gameRouter(t, &stubFeed{})
	ctx := context.Background()

	if _, err := engine.OpenRound(ctx, models.GameColor); err != nil {
		t.Fatalf("Failed to open round: %v", err)
	}
	if err := engine.CloseBetting(ctx, models.GameColor); err != nil {
		t.Fatalf("Failed to close betting: %v", err)
	}
	if _, err := engine.Resolve(ctx, models.GameColor); err != nil {
		t.Fatalf("Failed to resolve round: %v", err)
	}
	if _, err := engine.SettleRound(ctx, models.GameColor); err != nil {
		t.Fatalf("Failed to settle round: %v", err)
	}

	w := get(t, router, "/games/color/rounds")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Rounds []models.GameRound `json:"rounds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	if len(body.Rounds) != 1 {
		t.Errorf("Expected the settled round from the store, got %d rounds", len(body.Rounds))
	}
}
