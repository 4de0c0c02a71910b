package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aviator-casino-backend/internal/ledger"
	"aviator-casino-backend/internal/models"
	"aviator-casino-backend/internal/wallet"
)

type AdminHandler struct {
	wallet *wallet.Service
	ledger *ledger.Service
	log    zerolog.Logger
}

func NewAdminHandler(walletSvc *wallet.Service, ledgerSvc *ledger.Service, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		wallet: walletSvc,
		ledger: ledgerSvc,
		log:    log.With().Str("component", "admin_handler").Logger(),
	}
}

func requestID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *AdminHandler) PendingDeposits(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	deposits, err := h.wallet.PendingDeposits(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": deposits})
}

func (h *AdminHandler) ApproveDeposit(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	deposit, err := h.wallet.ApproveDeposit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposit": deposit})
}

func (h *AdminHandler) RejectDeposit(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	deposit, err := h.wallet.RejectDeposit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposit": deposit})
}

func (h *AdminHandler) PendingWithdrawals(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	withdrawals, err := h.wallet.PendingWithdrawals(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

// ProcessWithdrawal marks a pending withdrawal as paid out. The reserved
// amount was already debited when the request was created, so this only
// flips the status.
func (h *AdminHandler) ProcessWithdrawal(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	withdrawal, err := h.wallet.ProcessWithdrawal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": withdrawal})
}

func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	withdrawal, err := h.wallet.RejectWithdrawal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": withdrawal})
}

// Adjust applies a manual balance correction. The caller-supplied reference
// makes retried submissions idempotent.
func (h *AdminHandler) Adjust(c *gin.Context) {
	var req models.AdminAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	targetID, err := uuid.Parse(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account id"})
		return
	}

	adjustment, err := h.ledger.Adjust(c.Request.Context(), targetID, req.Amount, models.KindAdminAdjustment, "admin:"+req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Info().
		Str("account_id", req.AccountID).
		Str("amount", req.Amount.String()).
		Str("reference", req.Reference).
		Bool("replayed", adjustment.Replayed).
		Msg("admin adjustment applied")

	c.JSON(http.StatusOK, gin.H{
		"transaction": adjustment.Record,
		"new_balance": adjustment.NewBalance,
		"replayed":    adjustment.Replayed,
	})
}
