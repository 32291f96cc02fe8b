package routers

import (
	"net/http"
	"time"

	"exchange-ledger/internal/audit"
	"exchange-ledger/internal/deposit"
	"exchange-ledger/internal/ledger"
	"exchange-ledger/internal/operator"
	"exchange-ledger/internal/pricing"
	"exchange-ledger/internal/token"
	"exchange-ledger/internal/withdrawal"

	"github.com/gin-gonic/gin"
)

// Services 服务集合
type Services struct {
	Operator   operator.Service
	Ledger     ledger.Service
	Deposit    deposit.Service
	Withdrawal withdrawal.Service
	Token      token.Service
	Pricing    pricing.Scheduler
	Audit      audit.Service
}

// SetupRouter 设置路由
func SetupRouter(svc *Services) *gin.Engine {
	router := gin.New()
	router.Use(LoggerMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(CORSMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		// Public routes
		operatorHandler := NewOperatorHandler(svc.Operator, svc.Audit)
		apiV1.POST("/login", operatorHandler.Login)

		// Protected routes
		protected := apiV1.Group("")
		protected.Use(AuthMiddleware())
		{
			operatorHandler.Register(protected)

			depositHandler := NewDepositHandler(svc.Deposit, svc.Audit)
			depositHandler.Register(protected)

			withdrawalHandler := NewWithdrawalHandler(svc.Withdrawal, svc.Audit)
			withdrawalHandler.Register(protected)

			tokenHandler := NewTokenHandler(svc.Token, svc.Audit)
			tokenHandler.Register(protected)

			ledgerHandler := NewLedgerHandler(svc.Ledger)
			ledgerHandler.Register(protected)

			pricingHandler := NewPricingHandler(svc.Pricing, svc.Audit)
			pricingHandler.Register(protected)

			auditHandler := NewAuditHandler(svc.Audit)
			auditHandler.Register(protected)
		}
	}

	return router
}
