package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"aviator-casino-backend/internal/models"
	"aviator-casino-backend/internal/wallet"
)

type WalletHandler struct {
	wallet *wallet.Service
}

func NewWalletHandler(walletSvc *wallet.Service) *WalletHandler {
	return &WalletHandler{wallet: walletSvc}
}

// RequestDeposit records a pending deposit and returns the support hand-off
// message. No balance changes until an admin approves it.
func (h *WalletHandler) RequestDeposit(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	var req models.DepositCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	deposit, message, err := h.wallet.RequestDeposit(c.Request.Context(), id, req.Amount, req.ExternalReference)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"deposit": deposit,
		"message": message,
	})
}

// RequestWithdrawal reserves the gross amount immediately; the request stays
// pending until an admin processes or rejects it.
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	var req models.WithdrawalCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	withdrawal, err := h.wallet.RequestWithdrawal(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"withdrawal": withdrawal})
}

// CancelWithdrawal lets the owner cancel a pending withdrawal; the reserved
// amount is returned to the balance.
func (h *WalletHandler) CancelWithdrawal(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	withdrawal, err := h.wallet.CancelWithdrawal(c.Request.Context(), id, requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawal": withdrawal})
}
