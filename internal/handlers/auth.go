package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"aviator-casino-backend/internal/auth"
	"aviator-casino-backend/internal/ledger"
	"aviator-casino-backend/internal/models"
	"aviator-casino-backend/internal/referral"
	"aviator-casino-backend/internal/storage"
)

type AuthHandler struct {
	ledger    *ledger.Service
	referrals *referral.Tracker
	store     storage.Store
	tokens    *auth.TokenService
	log       zerolog.Logger
}

func NewAuthHandler(ledgerSvc *ledger.Service, referrals *referral.Tracker, store storage.Store, tokens *auth.TokenService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		ledger:    ledgerSvc,
		referrals: referrals,
		store:     store,
		tokens:    tokens,
		log:       log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register creates a fresh account and issues its bearer token. If a referral
// code is supplied, the referring account is credited its bonus; a bad code
// does not fail registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	account, err := h.ledger.CreateAccount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if req.ReferralCode != "" {
		referrer, err := h.store.GetAccountByReferralCode(c.Request.Context(), req.ReferralCode)
		switch {
		case err == nil:
			if _, err := h.referrals.Claim(c.Request.Context(), referrer.ID, account.ID); err != nil && !errors.Is(err, referral.ErrAlreadyClaimed) {
				h.log.Warn().Err(err).Str("code", req.ReferralCode).Msg("referral claim failed")
			}
		case errors.Is(err, storage.ErrNotFound):
			h.log.Debug().Str("code", req.ReferralCode).Msg("unknown referral code")
		default:
			h.log.Warn().Err(err).Msg("referral code lookup failed")
		}
	}

	token, err := h.tokens.IssueToken(account.ID, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"account": account,
		"token":   token,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	account, err := h.ledger.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

func (h *AuthHandler) History(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.ledger.History(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": records})
}
