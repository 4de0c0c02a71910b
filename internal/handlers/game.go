package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"aviator-casino-backend/internal/game"
	"aviator-casino-backend/internal/models"
)

// RoundFeed is the redis-backed cache of round state. It serves the read
// endpoints when the round is not live in this process and keeps the history
// strip off the primary store.
type RoundFeed interface {
	GetSnapshot(ctx context.Context, gameType models.GameType) (*game.RoundSnapshot, error)
	RecentOutcomes(ctx context.Context, gameType models.GameType, limit int64) ([]*models.GameRound, error)
}

type GameHandler struct {
	engine *game.Engine
	feed   RoundFeed
}

func NewGameHandler(engine *game.Engine, feed RoundFeed) *GameHandler {
	return &GameHandler{engine: engine, feed: feed}
}

func parseGameType(c *gin.Context) (models.GameType, bool) {
	gameType := models.GameType(c.Param("game"))
	if !gameType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown game type"})
		return "", false
	}
	return gameType, true
}

// CurrentRound returns the live round snapshot for one game, including the
// running multiplier for crash.
func (h *GameHandler) CurrentRound(c *gin.Context) {
	gameType, ok := parseGameType(c)
	if !ok {
		return
	}

	snapshot, err := h.engine.CurrentRound(gameType)
	if err != nil {
		// Another instance may own the round; fall back to its cached state.
		if h.feed != nil {
			if cached, feedErr := h.feed.GetSnapshot(c.Request.Context(), gameType); feedErr == nil && cached != nil {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	bet, err := h.engine.PlaceBet(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bet": bet})
}

func (h *GameHandler) Cashout(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	var req models.CashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	betID, err := uuid.Parse(req.BetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bet id"})
		return
	}

	bet, err := h.engine.Cashout(c.Request.Context(), id, betID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bet": bet})
}

// RecentRounds serves the resolved round history used by the result strips
// on the game screens.
func (h *GameHandler) RecentRounds(c *gin.Context) {
	gameType, ok := parseGameType(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if h.feed != nil {
		if cached, err := h.feed.RecentOutcomes(c.Request.Context(), gameType, int64(limit)); err == nil && len(cached) > 0 {
			c.JSON(http.StatusOK, gin.H{"rounds": cached})
			return
		}
	}

	rounds, err := h.engine.RecentRounds(c.Request.Context(), gameType, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}
