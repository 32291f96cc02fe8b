package routers

import (
	"fmt"
	"strconv"

	"exchange-ledger/internal/audit"
	"exchange-ledger/internal/deposit"
	"exchange-ledger/pkg/httputil"

	"github.com/gin-gonic/gin"
)

// defaultConfirmationThreshold 请求未携带阈值时的默认确认数
const defaultConfirmationThreshold = 12

// DepositHandler 充值处理器
type DepositHandler struct {
	service  deposit.Service
	auditSvc audit.Service
}

// NewDepositHandler 创建充值处理器
func NewDepositHandler(service deposit.Service, auditSvc audit.Service) *DepositHandler {
	return &DepositHandler{service: service, auditSvc: auditSvc}
}

// Register 注册路由
func (h *DepositHandler) Register(r *gin.RouterGroup) {
	r.POST("/deposits", h.RegisterDeposit)
	r.GET("/deposits", h.ListDeposits)
	r.GET("/deposits/:id", h.GetDeposit)
	r.POST("/deposits/:id/process", h.ProcessDeposit)
	r.POST("/deposits/:id/fail", h.FailDeposit)
}

// RegisterDeposit 登记链上充值
func (h *DepositHandler) RegisterDeposit(c *gin.Context) {
	var req deposit.RegisterDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	d, err := h.service.RegisterDeposit(&req)
	if err != nil {
		switch err {
		case deposit.ErrInvalidAmount:
			httputil.BadRequest(c, "invalid amount")
		default:
			httputil.InternalError(c, err.Error())
		}
		return
	}
	httputil.Success(c, d)
}

// ListDeposits 列出充值记录
func (h *DepositHandler) ListDeposits(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	status, err := strconv.Atoi(c.DefaultQuery("status", "-1"))
	if err != nil {
		status = -1
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	deposits, total, err := h.service.ListDeposits(uint(userID), deposit.DepositStatus(status), page, pageSize)
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.SuccessWithPage(c, total, page, pageSize, deposits)
}

// GetDeposit 获取充值记录
func (h *DepositHandler) GetDeposit(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	d, err := h.service.GetDeposit(uint(id))
	if err != nil {
		if err == deposit.ErrDepositNotFound {
			httputil.Error(c, httputil.ErrCodeDepositNotFound, "deposit not found")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, d)
}

// ProcessDepositRequest 推进充值确认请求
type ProcessDepositRequest struct {
	Confirmations int `json:"confirmations" binding:"required,min=1"`
	Threshold     int `json:"threshold"`
}

// ProcessDeposit 推进充值确认数
func (h *DepositHandler) ProcessDeposit(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req ProcessDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	if req.Threshold <= 0 {
		req.Threshold = defaultConfirmationThreshold
	}

	d, err := h.service.RecordConfirmation(uint(id), req.Confirmations, req.Threshold)
	if err != nil {
		switch err {
		case deposit.ErrDepositNotFound:
			httputil.Error(c, httputil.ErrCodeDepositNotFound, "deposit not found")
		case deposit.ErrInvalidThreshold:
			httputil.BadRequest(c, "invalid confirmation threshold")
		case deposit.ErrDepositNotPending:
			httputil.Error(c, httputil.ErrCodeInvalidState, "deposit already finalized")
		default:
			httputil.InternalError(c, err.Error())
		}
		return
	}

	h.auditSvc.Record(&audit.LogEntry{
		OperatorID:  GetOperatorID(c),
		Module:      audit.ModuleDeposit,
		Action:      audit.ActionConfirm,
		ResourceID:  d.UUID,
		Description: fmt.Sprintf("confirmations %d/%d, status %d", req.Confirmations, req.Threshold, d.Status),
		IP:          c.ClientIP(),
		Status:      1,
	})

	httputil.Success(c, d)
}

// FailDepositRequest 充值失败请求
type FailDepositRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FailDeposit 标记充值失败
func (h *DepositHandler) FailDeposit(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req FailDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	if err := h.service.FailDeposit(uint(id), req.Reason); err != nil {
		switch err {
		case deposit.ErrDepositNotFound:
			httputil.Error(c, httputil.ErrCodeDepositNotFound, "deposit not found")
		case deposit.ErrDepositNotPending:
			httputil.Error(c, httputil.ErrCodeInvalidState, "deposit already finalized")
		default:
			httputil.InternalError(c, err.Error())
		}
		return
	}

	h.auditSvc.Record(&audit.LogEntry{
		OperatorID:  GetOperatorID(c),
		Module:      audit.ModuleDeposit,
		Action:      audit.ActionUpdate,
		ResourceID:  strconv.FormatUint(id, 10),
		Description: "marked failed: " + req.Reason,
		IP:          c.ClientIP(),
		Status:      1,
	})

	httputil.Success(c, nil)
}
