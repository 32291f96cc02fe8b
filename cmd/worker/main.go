package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exchange-ledger/internal/notification"
	"exchange-ledger/internal/pricing"
	"exchange-ledger/internal/token"
	"exchange-ledger/pkg/cache"
	"exchange-ledger/pkg/config"
	"exchange-ledger/pkg/database"
	"exchange-ledger/pkg/logger"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	logger.Info("Starting worker...")

	// 初始化数据库
	if err := database.Init(cfg.Database); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 初始化Redis
	if err := cache.Init(cfg.Redis); err != nil {
		logger.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer cache.Close()

	db := database.GetDB()
	tokenRepo := token.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	notificationSvc := notification.NewService(notificationRepo, cfg.Notification, nil)

	provider := pricing.NewHTTPProvider(cfg.Pricing)
	scheduler := pricing.NewScheduler(tokenRepo, provider, pricing.NewRedisQuoteCache(), notificationSvc, cfg.Pricing)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务
	go runPriceRefresher(ctx, scheduler, cfg.Pricing.RefreshInterval)
	go runNotificationProcessor(ctx, notificationSvc)

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()

	// 等待任务完成
	time.Sleep(3 * time.Second)
	logger.Info("Worker exited")
}

// runPriceRefresher 定时刷新币种价格。启动后先跑一轮，之后按间隔执行。
// 分布式锁避免与手动触发或多实例worker重叠。
func runPriceRefresher(ctx context.Context, scheduler pricing.Scheduler, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	refresh := func() {
		lock := cache.NewLock("price-refresh", 10*time.Minute)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Errorf("Failed to acquire price refresh lock: %v", err)
			return
		}
		if !acquired {
			logger.Info("Price refresh already running elsewhere, skipping")
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				logger.Errorf("Failed to release price refresh lock: %v", err)
			}
		}()

		if _, err := scheduler.RefreshAll(ctx); err != nil && err != context.Canceled {
			logger.Errorf("Price refresh run failed: %v", err)
		}
	}

	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

// runNotificationProcessor 定时投递待发送通知
func runNotificationProcessor(ctx context.Context, svc notification.Service) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.ProcessPendingNotifications(); err != nil {
				logger.Errorf("Failed to process pending notifications: %v", err)
			}
		}
	}
}
