package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"aviator-casino-backend/internal/game"
	"aviator-casino-backend/internal/ledger"
	"aviator-casino-backend/internal/referral"
	"aviator-casino-backend/internal/storage"
	"aviator-casino-backend/internal/wallet"
)

// accountID reads the authenticated account from the gin context set by the
// auth middleware.
func accountID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("account_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses. Unknown errors become
// a 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Insufficient balance"})
	case errors.Is(err, ledger.ErrAccountNotFound), errors.Is(err, storage.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, wallet.ErrBelowMinimum),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrMissingMethodDetails):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, wallet.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, gin.H{"error": "Duplicate request"})
	case errors.Is(err, wallet.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
	case errors.Is(err, wallet.ErrRequestAlreadySettled):
		c.JSON(http.StatusConflict, gin.H{"error": "Request already settled"})
	case errors.Is(err, wallet.ErrNotRequestOwner), errors.Is(err, game.ErrNotBetOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
	case errors.Is(err, referral.ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": "Referral bonus already claimed"})
	case errors.Is(err, referral.ErrSelfReferral):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot refer yourself"})
	case errors.Is(err, game.ErrInvalidBet):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrWindowClosed), errors.Is(err, game.ErrNoActiveRound):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrBetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Bet not found"})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
