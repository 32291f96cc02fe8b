package routers

import (
	"strconv"
	"time"

	"exchange-ledger/internal/audit"
	"exchange-ledger/internal/token"
	"exchange-ledger/pkg/httputil"

	"github.com/gin-gonic/gin"
)

// TokenHandler 币种处理器
type TokenHandler struct {
	service  token.Service
	auditSvc audit.Service
}

// NewTokenHandler 创建币种处理器
func NewTokenHandler(service token.Service, auditSvc audit.Service) *TokenHandler {
	return &TokenHandler{service: service, auditSvc: auditSvc}
}

// Register 注册路由
func (h *TokenHandler) Register(r *gin.RouterGroup) {
	r.POST("/tokens", h.CreateToken)
	r.GET("/tokens", h.ListTokens)
	r.GET("/tokens/:id", h.GetToken)
	r.PUT("/tokens/:id", h.UpdateToken)
	r.POST("/tokens/:id/activate", h.ActivateToken)
	r.POST("/tokens/:id/deactivate", h.DeactivateToken)
	r.GET("/tokens/:id/price-history", h.GetPriceHistory)
}

// CreateTokenRequest 创建币种请求
type CreateTokenRequest struct {
	Symbol         string `json:"symbol" binding:"required"`
	BaseSymbol     string `json:"base_symbol"`
	Name           string `json:"name" binding:"required"`
	Blockchain     string `json:"blockchain" binding:"required"`
	Network        string `json:"network" binding:"required"`
	NetworkVersion string `json:"network_version"`
	Decimals       int    `json:"decimals"`
}

// CreateToken 创建币种
func (h *TokenHandler) CreateToken(c *gin.Context) {
	var req CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	t := &token.Token{
		Symbol:         req.Symbol,
		BaseSymbol:     req.BaseSymbol,
		Name:           req.Name,
		Blockchain:     req.Blockchain,
		Network:        req.Network,
		NetworkVersion: req.NetworkVersion,
		Decimals:       req.Decimals,
		IsActive:       true,
	}
	if t.Decimals == 0 {
		t.Decimals = 18
	}

	if err := h.service.CreateToken(t); err != nil {
		if err == token.ErrTokenExists {
			httputil.Conflict(c, "token already exists on this network")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}

	h.auditSvc.Record(&audit.LogEntry{
		OperatorID:  GetOperatorID(c),
		Module:      audit.ModuleToken,
		Action:      audit.ActionCreate,
		ResourceID:  strconv.FormatUint(uint64(t.ID), 10),
		Description: "created token " + t.Symbol + " on " + t.Network,
		IP:          c.ClientIP(),
		Status:      1,
	})

	httputil.Success(c, t)
}

// ListTokens 列出币种
func (h *TokenHandler) ListTokens(c *gin.Context) {
	blockchain := c.Query("blockchain")
	activeOnly := c.DefaultQuery("active_only", "false") == "true"

	tokens, err := h.service.ListTokens(blockchain, activeOnly)
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, tokens)
}

// GetToken 获取币种
func (h *TokenHandler) GetToken(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	t, err := h.service.GetToken(uint(id))
	if err != nil {
		if err == token.ErrTokenNotFound {
			httputil.Error(c, httputil.ErrCodeTokenNotFound, "token not found")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, t)
}

// UpdateTokenRequest 更新币种请求
type UpdateTokenRequest struct {
	Name           string `json:"name"`
	NetworkVersion string `json:"network_version"`
	Decimals       int    `json:"decimals"`
}

// UpdateToken 更新币种
func (h *TokenHandler) UpdateToken(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req UpdateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	t, err := h.service.GetToken(uint(id))
	if err != nil {
		if err == token.ErrTokenNotFound {
			httputil.Error(c, httputil.ErrCodeTokenNotFound, "token not found")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}

	if req.Name != "" {
		t.Name = req.Name
	}
	if req.NetworkVersion != "" {
		t.NetworkVersion = req.NetworkVersion
	}
	if req.Decimals > 0 {
		t.Decimals = req.Decimals
	}

	if err := h.service.UpdateToken(t); err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, t)
}

// ActivateToken 上架币种
func (h *TokenHandler) ActivateToken(c *gin.Context) {
	h.setActive(c, true)
}

// DeactivateToken 下架币种
func (h *TokenHandler) DeactivateToken(c *gin.Context) {
	h.setActive(c, false)
}

func (h *TokenHandler) setActive(c *gin.Context, active bool) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	var err error
	action := audit.ActionActivate
	if active {
		err = h.service.ActivateToken(uint(id))
	} else {
		err = h.service.DeactivateToken(uint(id))
		action = audit.ActionDeactivate
	}
	if err != nil {
		if err == token.ErrTokenNotFound {
			httputil.Error(c, httputil.ErrCodeTokenNotFound, "token not found")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}

	h.auditSvc.Record(&audit.LogEntry{
		OperatorID: GetOperatorID(c),
		Module:     audit.ModuleToken,
		Action:     action,
		ResourceID: c.Param("id"),
		IP:         c.ClientIP(),
		Status:     1,
	})

	httputil.Success(c, nil)
}

// GetPriceHistory 获取价格历史
func (h *TokenHandler) GetPriceHistory(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}

	points, err := h.service.GetPriceHistory(uint(id), time.Duration(hours)*time.Hour)
	if err != nil {
		if err == token.ErrTokenNotFound {
			httputil.Error(c, httputil.ErrCodeTokenNotFound, "token not found")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, points)
}
