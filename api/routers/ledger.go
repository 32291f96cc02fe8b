package routers

import (
	"strconv"

	"exchange-ledger/internal/ledger"
	"exchange-ledger/pkg/httputil"

	"github.com/gin-gonic/gin"
)

// LedgerHandler 账本处理器
type LedgerHandler struct {
	service ledger.Service
}

// NewLedgerHandler 创建账本处理器
func NewLedgerHandler(service ledger.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// Register 注册路由
func (h *LedgerHandler) Register(r *gin.RouterGroup) {
	r.GET("/balances/:user_id", h.ListBalances)
	r.GET("/balances/:user_id/:token_id", h.GetBalance)
	r.GET("/holds/:uuid", h.GetHold)
}

// ListBalances 列出用户全部余额
func (h *LedgerHandler) ListBalances(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	balances, err := h.service.ListBalances(uint(userID))
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, balances)
}

// GetBalance 获取用户某币种余额
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	tokenID, _ := strconv.ParseUint(c.Param("token_id"), 10, 64)
	walletType := ledger.WalletType(c.DefaultQuery("wallet_type", string(ledger.WalletTypeSpot)))

	balance, err := h.service.GetBalance(uint(userID), uint(tokenID), walletType)
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, balance)
}

// GetHold 获取冻结记录
func (h *LedgerHandler) GetHold(c *gin.Context) {
	hold, err := h.service.GetHold(c.Param("uuid"))
	if err != nil {
		if err == ledger.ErrHoldNotFound {
			httputil.NotFound(c, "hold not found")
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, hold)
}
