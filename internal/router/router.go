package router

import (
	"time"

	"worklink/config"
	"worklink/internal/domain"
	"worklink/internal/handler"
	"worklink/internal/middleware"
	"worklink/internal/repository"
	"worklink/internal/service"
	"worklink/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, provider payment.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, walletRepo)
	txSvc := service.NewTransactionService(db, walletRepo, ledgerRepo, projectRepo, activityRepo, cfg.Engine.LockWait)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	walletHandler := handler.NewWalletHandler(cfg, walletRepo, ledgerRepo, paymentRepo, txSvc, provider)
	projectHandler := handler.NewProjectHandler(projectRepo)
	paymentHandler := handler.NewPaymentHandler(cfg, paymentRepo, projectRepo, txSvc, provider)
	webhookHandler := handler.NewPaymentWebhookHandler(paymentRepo, txSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/wallet", walletHandler.GetBalance)
			me.GET("/wallet/transactions", walletHandler.GetTransactions)
			me.POST("/wallet/topup/initiate", walletHandler.InitiateTopup)
			me.GET("/projects", projectHandler.ListMine)
		}

		clientOnly := middleware.RequireRole(domain.RoleClient)
		api.POST("/projects", authMw, clientOnly, projectHandler.Create)
		api.GET("/projects/:id", authMw, projectHandler.Get)
		api.POST("/projects/:id/accept-quote", authMw, clientOnly, projectHandler.AcceptQuote)
		api.POST("/projects/:id/pay/wallet", authMw, clientOnly, walletHandler.PayProject)
		api.POST("/payments/initiate", authMw, clientOnly, paymentHandler.Initiate)

		api.POST("/webhooks/payment", webhookHandler.Handle)
	}

	return r
}
