package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"aviator-casino-backend/internal/auth"
	"aviator-casino-backend/internal/config"
	"aviator-casino-backend/internal/game"
	"aviator-casino-backend/internal/handlers"
	"aviator-casino-backend/internal/ledger"
	"aviator-casino-backend/internal/live"
	"aviator-casino-backend/internal/middleware"
	"aviator-casino-backend/internal/models"
	"aviator-casino-backend/internal/observability"
	"aviator-casino-backend/internal/referral"
	"aviator-casino-backend/internal/scheduler"
	"aviator-casino-backend/internal/storage"
	"aviator-casino-backend/internal/wallet"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load(os.Getenv("CASINO_CONFIG"))
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.Server.Env)

	store, err := storage.NewPostgresStore(cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	liveService, err := live.NewService(cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer liveService.Close()

	serverSeed := os.Getenv("CASINO_SERVER_SEED")
	if serverSeed == "" {
		serverSeed, err = models.NewServerSeed()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to generate server seed")
		}
		log.Warn().Msg("no server seed configured, generated an ephemeral one")
	}

	ledgerService := ledger.NewService(store, log)
	walletService := wallet.NewService(store, ledgerService, cfg.Wallet, log)
	referralTracker := referral.NewTracker(store, ledgerService, cfg.Referral, log)
	engine := game.NewEngine(store, ledgerService, cfg.Games, serverSeed, log)
	tokens := auth.NewTokenService(cfg.Auth)

	wsHandler := handlers.NewWebSocketHandler(liveService, log)
	authHandler := handlers.NewAuthHandler(ledgerService, referralTracker, store, tokens, log)
	walletHandler := handlers.NewWalletHandler(walletService)
	gameHandler := handlers.NewGameHandler(engine, liveService)
	adminHandler := handlers.NewAdminHandler(walletService, ledgerService, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rounds := scheduler.New(engine, cfg.Games, wsHandler, log)
	rounds.Start(ctx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/register", authHandler.Register)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(tokens))
	protected.Use(middleware.RateLimitMiddleware(liveService))
	{
		protected.GET("/me", authHandler.Me)
		protected.GET("/transactions", authHandler.History)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		walletRoutes := protected.Group("/wallet")
		{
			walletRoutes.POST("/deposit", walletHandler.RequestDeposit)
			walletRoutes.POST("/withdrawal", walletHandler.RequestWithdrawal)
			walletRoutes.POST("/withdrawal/:id/cancel", walletHandler.CancelWithdrawal)
		}

		games := protected.Group("/games")
		{
			games.GET("/:game/round", gameHandler.CurrentRound)
			games.GET("/:game/rounds", gameHandler.RecentRounds)
			games.POST("/bet", gameHandler.PlaceBet)
			games.POST("/cashout", gameHandler.Cashout)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("/deposits", adminHandler.PendingDeposits)
			admin.POST("/deposits/:id/approve", adminHandler.ApproveDeposit)
			admin.POST("/deposits/:id/reject", adminHandler.RejectDeposit)

			admin.GET("/withdrawals", adminHandler.PendingWithdrawals)
			admin.POST("/withdrawals/:id/process", adminHandler.ProcessWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)

			admin.POST("/adjust", adminHandler.Adjust)
		}
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	cancel()
	rounds.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	log.Info().Msg("server stopped")
}
