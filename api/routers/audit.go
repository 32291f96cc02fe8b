package routers

import (
	"strconv"

	"exchange-ledger/internal/audit"
	"exchange-ledger/pkg/httputil"

	"github.com/gin-gonic/gin"
)

// AuditHandler 审计日志处理器
type AuditHandler struct {
	service audit.Service
}

// NewAuditHandler 创建审计日志处理器
func NewAuditHandler(service audit.Service) *AuditHandler {
	return &AuditHandler{service: service}
}

// Register 注册路由
func (h *AuditHandler) Register(r *gin.RouterGroup) {
	r.GET("/audit-logs", h.ListLogs)
}

// ListLogs 列出审计日志
func (h *AuditHandler) ListLogs(c *gin.Context) {
	operatorID, _ := strconv.ParseUint(c.Query("operator_id"), 10, 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	logs, total, err := h.service.ListLogs(&audit.ListFilter{
		OperatorID: uint(operatorID),
		Module:     c.Query("module"),
		Action:     c.Query("action"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.SuccessWithPage(c, total, page, pageSize, logs)
}
