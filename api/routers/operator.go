package routers

import (
	"exchange-ledger/internal/audit"
	"exchange-ledger/internal/operator"
	"exchange-ledger/pkg/httputil"

	"github.com/gin-gonic/gin"
)

// OperatorHandler 操作员处理器
type OperatorHandler struct {
	service  operator.Service
	auditSvc audit.Service
}

// NewOperatorHandler 创建操作员处理器
func NewOperatorHandler(service operator.Service, auditSvc audit.Service) *OperatorHandler {
	return &OperatorHandler{service: service, auditSvc: auditSvc}
}

// Register 注册路由
func (h *OperatorHandler) Register(r *gin.RouterGroup) {
	r.GET("/profile", h.GetProfile)
	r.PUT("/password", h.ChangePassword)
	r.POST("/2fa/enable", h.Enable2FA)
	r.POST("/2fa/verify", h.Verify2FA)

	admin := r.Group("")
	admin.Use(AdminOnlyMiddleware())
	admin.POST("/operators", h.CreateOperator)
}

// Login 登录
func (h *OperatorHandler) Login(c *gin.Context) {
	var req operator.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Login(&req, c.ClientIP())
	if err != nil {
		switch err {
		case operator.ErrOperatorNotFound, operator.ErrInvalidPassword, operator.ErrInvalid2FACode:
			httputil.Unauthorized(c, "invalid credentials")
		case operator.ErrOperatorInactive:
			httputil.Forbidden(c, "operator disabled")
		default:
			httputil.InternalError(c, err.Error())
		}
		return
	}

	h.auditSvc.Record(&audit.LogEntry{
		OperatorID: resp.Operator.ID,
		Module:     audit.ModuleOperator,
		Action:     audit.ActionLogin,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Status:     1,
	})

	httputil.Success(c, resp)
}

// GetProfile 获取当前操作员信息
func (h *OperatorHandler) GetProfile(c *gin.Context) {
	op, err := h.service.GetOperator(GetOperatorID(c))
	if err != nil {
		if err == operator.ErrOperatorNotFound {
			httputil.NotFound(c, "operator not found")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, op)
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword 修改密码
func (h *OperatorHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	if err := h.service.ChangePassword(GetOperatorID(c), req.OldPassword, req.NewPassword); err != nil {
		if err == operator.ErrInvalidPassword {
			httputil.Error(c, httputil.ErrCodeInvalidPassword, "invalid old password")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, nil)
}

// Enable2FA 开启两步验证
func (h *OperatorHandler) Enable2FA(c *gin.Context) {
	secretURL, err := h.service.Enable2FA(GetOperatorID(c))
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, gin.H{"otpauth_url": secretURL})
}

// Verify2FARequest 验证两步验证请求
type Verify2FARequest struct {
	Code string `json:"code" binding:"required"`
}

// Verify2FA 验证两步验证码
func (h *OperatorHandler) Verify2FA(c *gin.Context) {
	var req Verify2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	httputil.Success(c, gin.H{"valid": h.service.Verify2FA(GetOperatorID(c), req.Code)})
}

// CreateOperatorRequest 创建操作员请求
type CreateOperatorRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=admin reviewer"`
}

// CreateOperator 创建操作员
func (h *OperatorHandler) CreateOperator(c *gin.Context) {
	var req CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	op, err := h.service.CreateOperator(req.Email, req.Password, operator.Role(req.Role))
	if err != nil {
		if err == operator.ErrOperatorExists {
			httputil.Conflict(c, "operator already exists")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}

	h.auditSvc.Record(&audit.LogEntry{
		OperatorID:  GetOperatorID(c),
		Module:      audit.ModuleOperator,
		Action:      audit.ActionCreate,
		ResourceID:  op.UUID,
		Description: "created operator " + op.Email,
		IP:          c.ClientIP(),
		Status:      1,
	})

	httputil.Success(c, op)
}
