package routers

import (
	"fmt"
	"strconv"

	"exchange-ledger/internal/audit"
	"exchange-ledger/internal/withdrawal"
	"exchange-ledger/pkg/httputil"

	"github.com/gin-gonic/gin"
)

// WithdrawalHandler 提现处理器
type WithdrawalHandler struct {
	service  withdrawal.Service
	auditSvc audit.Service
}

// NewWithdrawalHandler 创建提现处理器
func NewWithdrawalHandler(service withdrawal.Service, auditSvc audit.Service) *WithdrawalHandler {
	return &WithdrawalHandler{service: service, auditSvc: auditSvc}
}

// Register 注册路由
func (h *WithdrawalHandler) Register(r *gin.RouterGroup) {
	r.POST("/withdrawals", h.CreateWithdrawal)
	r.GET("/withdrawals", h.ListWithdrawals)
	r.GET("/withdrawals/:id", h.GetWithdrawal)
	r.POST("/withdrawals/:id/process", h.ProcessWithdrawal)
}

// CreateWithdrawal 创建提现
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	var req withdrawal.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	w, err := h.service.CreateWithdrawal(&req)
	if err != nil {
		switch err {
		case withdrawal.ErrInvalidAmount:
			httputil.BadRequest(c, "invalid amount")
		case withdrawal.ErrInsufficientBalance:
			httputil.Error(c, httputil.ErrCodeInsufficientFund, "insufficient balance")
		default:
			httputil.InternalError(c, err.Error())
		}
		return
	}
	httputil.Success(c, w)
}

// ListWithdrawals 列出提现记录
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	status, err := strconv.Atoi(c.DefaultQuery("status", "-1"))
	if err != nil {
		status = -1
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	withdrawals, total, err := h.service.ListWithdrawals(uint(userID), withdrawal.WithdrawalStatus(status), page, pageSize)
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.SuccessWithPage(c, total, page, pageSize, withdrawals)
}

// GetWithdrawal 获取提现记录
func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	w, err := h.service.GetWithdrawal(uint(id))
	if err != nil {
		if err == withdrawal.ErrWithdrawalNotFound {
			httputil.Error(c, httputil.ErrCodeWithdrawalNotFound, "withdrawal not found")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, w)
}

// ProcessWithdrawalRequest 处理提现请求
type ProcessWithdrawalRequest struct {
	Password  string `json:"password" binding:"required"`
	SecretKey string `json:"secret_key" binding:"required"`
	Status    int    `json:"status" binding:"required"`
	TxHash    string `json:"tx_hash"`
	Reason    string `json:"reason"`
}

// ProcessWithdrawal 处理提现。密码或密钥错误时返回success=false
// 带可读提示，账目不发生任何变化。
func (h *WithdrawalHandler) ProcessWithdrawal(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req ProcessWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	operatorID := GetOperatorID(c)
	result, err := h.service.Process(&withdrawal.ProcessRequest{
		WithdrawalID: uint(id),
		OperatorID:   operatorID,
		Password:     req.Password,
		SecretKey:    req.SecretKey,
		TargetStatus: withdrawal.WithdrawalStatus(req.Status),
		Reason:       req.Reason,
		TxHash:       req.TxHash,
	})
	if err != nil {
		switch err {
		case withdrawal.ErrWithdrawalNotFound:
			httputil.Error(c, httputil.ErrCodeWithdrawalNotFound, "withdrawal not found")
		case withdrawal.ErrWithdrawalNotPending:
			httputil.Error(c, httputil.ErrCodeInvalidState, "withdrawal already processed")
		case withdrawal.ErrInvalidTargetStatus:
			httputil.BadRequest(c, "invalid target status")
		default:
			httputil.InternalError(c, err.Error())
		}
		return
	}

	auditStatus := 1
	errMsg := ""
	if !result.Success {
		auditStatus = 0
		errMsg = result.Message
	}
	h.auditSvc.Record(&audit.LogEntry{
		OperatorID:  operatorID,
		Module:      audit.ModuleWithdrawal,
		Action:      audit.ActionProcess,
		ResourceID:  strconv.FormatUint(id, 10),
		Description: fmt.Sprintf("target status %d, reason %q", req.Status, req.Reason),
		IP:          c.ClientIP(),
		Status:      auditStatus,
		ErrorMsg:    errMsg,
	})

	httputil.Success(c, result)
}
