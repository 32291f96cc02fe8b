package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exchange-ledger/api/routers"
	"exchange-ledger/internal/audit"
	"exchange-ledger/internal/deposit"
	"exchange-ledger/internal/ledger"
	"exchange-ledger/internal/notification"
	"exchange-ledger/internal/operator"
	"exchange-ledger/internal/pricing"
	"exchange-ledger/internal/token"
	"exchange-ledger/internal/withdrawal"
	"exchange-ledger/pkg/cache"
	"exchange-ledger/pkg/config"
	"exchange-ledger/pkg/database"
	"exchange-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	logger.Infof("Starting %s v%s", cfg.App.Name, cfg.App.Version)

	// 初始化数据库
	if err := database.Init(cfg.Database); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 自动迁移
	if err := autoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化Redis
	if err := cache.Init(cfg.Redis); err != nil {
		logger.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer cache.Close()

	// 初始化服务
	services := initServices(cfg)

	// 首次启动种入默认操作员
	if err := services.Operator.EnsureBootstrapOperator(
		cfg.Operator.BootstrapEmail, cfg.Operator.BootstrapPassword,
	); err != nil {
		logger.Fatalf("Failed to bootstrap operator: %v", err)
	}

	// 设置JWT密钥
	routers.SetJWTSecret(cfg.JWT.Secret)

	// 初始化Gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := routers.SetupRouter(services)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      httpRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("HTTP server listening on port %d", cfg.App.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}
	logger.Info("Server exited")
}

func autoMigrate() error {
	return database.AutoMigrate(
		&operator.Operator{},
		&token.Token{},
		&token.PricePoint{},
		&ledger.Balance{},
		&ledger.Hold{},
		&ledger.Adjustment{},
		&deposit.Deposit{},
		&withdrawal.Withdrawal{},
		&notification.Notification{},
		&audit.AuditLog{},
	)
}

func initServices(cfg *config.Config) *routers.Services {
	db := database.GetDB()

	operatorRepo := operator.NewRepository(db)
	tokenRepo := token.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	depositRepo := deposit.NewRepository(db)
	withdrawalRepo := withdrawal.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	auditRepo := audit.NewRepository(db)

	operatorSvc := operator.NewService(operatorRepo, cfg.JWT.Secret, cfg.JWT.ExpireTime, cfg.Operator.SecretKeyHash)
	notificationSvc := notification.NewService(notificationRepo, cfg.Notification, nil)
	auditSvc := audit.NewService(auditRepo)

	provider := pricing.NewHTTPProvider(cfg.Pricing)
	scheduler := pricing.NewScheduler(tokenRepo, provider, pricing.NewRedisQuoteCache(), notificationSvc, cfg.Pricing)

	return &routers.Services{
		Operator:   operatorSvc,
		Ledger:     ledger.NewService(ledgerRepo),
		Deposit:    deposit.NewService(depositRepo, ledgerRepo, notificationSvc),
		Withdrawal: withdrawal.NewService(withdrawalRepo, ledgerRepo, tokenRepo, operatorSvc, notificationSvc),
		Token:      token.NewService(tokenRepo),
		Pricing:    scheduler,
		Audit:      auditSvc,
	}
}
