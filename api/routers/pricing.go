package routers

import (
	"time"

	"exchange-ledger/internal/audit"
	"exchange-ledger/internal/pricing"
	"exchange-ledger/pkg/cache"
	"exchange-ledger/pkg/httputil"
	"exchange-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PricingHandler 价格刷新处理器
type PricingHandler struct {
	scheduler pricing.Scheduler
	auditSvc  audit.Service
}

// NewPricingHandler 创建价格刷新处理器
func NewPricingHandler(scheduler pricing.Scheduler, auditSvc audit.Service) *PricingHandler {
	return &PricingHandler{scheduler: scheduler, auditSvc: auditSvc}
}

// Register 注册路由
func (h *PricingHandler) Register(r *gin.RouterGroup) {
	r.POST("/prices/update", h.UpdatePrices)
}

// UpdatePrices 手动触发全量价格刷新。
// 分布式锁防止与定时任务或并发手动触发重叠执行。
func (h *PricingHandler) UpdatePrices(c *gin.Context) {
	lock := cache.NewLock("price-refresh", 10*time.Minute)
	acquired, err := lock.Acquire(c.Request.Context())
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	if !acquired {
		httputil.Conflict(c, "price refresh already in progress")
		return
	}
	defer func() {
		if err := lock.Release(c.Request.Context()); err != nil {
			logger.Errorf("Failed to release price refresh lock: %v", err)
		}
	}()

	report, err := h.scheduler.RefreshAll(c.Request.Context())
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}

	h.auditSvc.Record(&audit.LogEntry{
		OperatorID:  GetOperatorID(c),
		Module:      audit.ModulePricing,
		Action:      audit.ActionRefresh,
		Description: "manual price refresh",
		IP:          c.ClientIP(),
		Status:      1,
	})

	httputil.Success(c, report)
}
