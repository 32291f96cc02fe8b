package withdrawal

import (
	"errors"
	"fmt"

	"exchange-ledger/internal/ledger"
	"exchange-ledger/internal/notification"
	"exchange-ledger/internal/operator"
	"exchange-ledger/internal/token"
	"exchange-ledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrWithdrawalNotPending = errors.New("withdrawal is not pending")
	ErrInvalidTargetStatus  = errors.New("invalid target status")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInsufficientBalance  = errors.New("insufficient balance")
)

// Service 提现服务接口
type Service interface {
	// CreateWithdrawal 创建提现，创建时即冻结amount+fee
	CreateWithdrawal(req *CreateWithdrawalRequest) (*Withdrawal, error)

	// Process 操作员处理提现：密码+处理密钥双重授权，
	// 授权失败返回结构化结果而不是错误，便于表单内联展示。
	Process(req *ProcessRequest) (*ProcessResult, error)

	GetWithdrawal(withdrawalID uint) (*Withdrawal, error)
	GetWithdrawalByUUID(uuid string) (*Withdrawal, error)
	ListWithdrawals(userID uint, status WithdrawalStatus, page, pageSize int) ([]*Withdrawal, int64, error)
}

type service struct {
	repo        Repository
	ledgerRepo  ledger.Repository
	tokenRepo   token.Repository
	operatorSvc operator.Service
	notifier    notification.Notifier
}

// NewService 创建提现服务
func NewService(
	repo Repository,
	ledgerRepo ledger.Repository,
	tokenRepo token.Repository,
	operatorSvc operator.Service,
	notifier notification.Notifier,
) Service {
	return &service{
		repo:        repo,
		ledgerRepo:  ledgerRepo,
		tokenRepo:   tokenRepo,
		operatorSvc: operatorSvc,
		notifier:    notifier,
	}
}

// CreateWithdrawalRequest 创建提现请求
type CreateWithdrawalRequest struct {
	UserID  uint   `json:"user_id" binding:"required"`
	TokenID uint   `json:"token_id" binding:"required"`
	Address string `json:"address" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
	Fee     string `json:"fee"`
	Network string `json:"network"`
	Memo    string `json:"memo"`
}

// ProcessRequest 处理提现请求
type ProcessRequest struct {
	WithdrawalID uint
	OperatorID   uint
	Password     string
	SecretKey    string
	TargetStatus WithdrawalStatus
	Reason       string
	TxHash       string
}

// ProcessResult 处理结果。授权失败时Success=false并带原因。
type ProcessResult struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Withdrawal *Withdrawal `json:"withdrawal,omitempty"`
}

// CreateWithdrawal 创建提现
func (s *service) CreateWithdrawal(req *CreateWithdrawalRequest) (*Withdrawal, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	fee := decimal.Zero
	if req.Fee != "" {
		fee, err = decimal.NewFromString(req.Fee)
		if err != nil || fee.IsNegative() {
			return nil, ErrInvalidAmount
		}
	}

	tok, err := s.tokenRepo.GetByID(req.TokenID)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, token.ErrTokenNotFound
	}

	w := &Withdrawal{
		UUID:           uuid.New().String(),
		UserID:         req.UserID,
		TokenID:        req.TokenID,
		Address:        req.Address,
		Amount:         amount.String(),
		Fee:            fee.String(),
		Network:        req.Network,
		NetworkVersion: tok.NetworkVersion,
		Memo:           req.Memo,
		Status:         WithdrawalStatusPending,
		TokenSymbol:    tok.Symbol,
		TokenName:      tok.Name,
		ReceiveAmount:  amount.String(),
	}

	// 创建时点的USD快照
	if price, perr := decimal.NewFromString(tok.CurrentPrice); perr == nil && price.IsPositive() {
		w.AmountUSD = amount.Mul(price).String()
		w.FeeUSD = fee.Mul(price).String()
	}

	// 创建即冻结amount+fee，处理完成前资金不可挪用
	total := amount.Add(fee)
	hold := &ledger.Hold{
		UUID:          uuid.New().String(),
		UserID:        req.UserID,
		TokenID:       req.TokenID,
		WalletType:    ledger.WalletTypeSpot,
		Amount:        total.String(),
		ReferenceType: "withdrawal",
		ReferenceID:   w.UUID,
	}
	if err := s.ledgerRepo.PlaceHold(hold); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}
	w.HoldUUID = hold.UUID

	if err := s.repo.Create(w); err != nil {
		// 创建失败，退回冻结
		if rerr := s.releaseHold(hold.UUID); rerr != nil {
			logger.Errorf("Failed to release hold %s after withdrawal create failure: %v", hold.UUID, rerr)
		}
		return nil, err
	}

	logger.Infof("Withdrawal created: %s, %s %s to %s (hold %s)",
		w.UUID, w.Amount, w.TokenSymbol, w.Address, w.HoldUUID)
	return w, nil
}

// Process 处理提现
func (s *service) Process(req *ProcessRequest) (*ProcessResult, error) {
	switch req.TargetStatus {
	case WithdrawalStatusCompleted, WithdrawalStatusFailed, WithdrawalStatusCancelled:
	default:
		return nil, ErrInvalidTargetStatus
	}

	w, err := s.repo.GetByID(req.WithdrawalID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}
	if w.Status != WithdrawalStatusPending {
		return nil, ErrWithdrawalNotPending
	}

	// 双重授权：密码和处理密钥各自独立校验，都通过才放行。
	// 两项都执行，避免靠短路泄露哪一项错了。
	passwordOK := s.operatorSvc.VerifyPassword(req.OperatorID, req.Password)
	secretOK := s.operatorSvc.VerifySecretKey(req.SecretKey)
	if !passwordOK || !secretOK {
		logger.Warnf("Withdrawal %s authorization failed by operator %d (password=%v secret=%v)",
			w.UUID, req.OperatorID, passwordOK, secretOK)
		return &ProcessResult{
			Success: false,
			Message: "invalid password or secret key",
		}, nil
	}

	// 终态翻转与资金动作同一事务提交；
	// 并发的第二个调用会在guarded update上输掉，拿到ErrWithdrawalNotPending。
	idemKey := fmt.Sprintf("withdrawal:%s", w.UUID)
	err = s.repo.MarkProcessed(w.ID, req.TargetStatus, req.TxHash, req.Reason, req.OperatorID,
		func(tx *gorm.DB) error {
			if req.TargetStatus == WithdrawalStatusCompleted {
				return s.ledgerRepo.FinalizeHoldTx(tx, w.HoldUUID, idemKey)
			}
			return s.ledgerRepo.ReleaseHoldTx(tx, w.HoldUUID)
		})
	if err != nil {
		return nil, err
	}

	logger.Infof("Withdrawal processed: %s -> %d by operator %d", w.UUID, req.TargetStatus, req.OperatorID)

	// 通知失败不影响已提交的账务
	if nerr := s.notifier.Notify(notification.EventWithdrawalProcessed, map[string]interface{}{
		"withdrawal_id":   w.ID,
		"withdrawal_uuid": w.UUID,
		"user_id":         w.UserID,
		"token_symbol":    w.TokenSymbol,
		"amount":          w.Amount,
		"fee":             w.Fee,
		"status":          int(req.TargetStatus),
		"reason":          req.Reason,
		"tx_hash":         req.TxHash,
	}); nerr != nil {
		logger.Errorf("Failed to enqueue withdrawal processed notification for %s: %v", w.UUID, nerr)
	}

	updated, err := s.repo.GetByID(w.ID)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{Success: true, Withdrawal: updated}, nil
}

// GetWithdrawal 获取提现记录
func (s *service) GetWithdrawal(withdrawalID uint) (*Withdrawal, error) {
	w, err := s.repo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}
	return w, nil
}

// GetWithdrawalByUUID 通过UUID获取提现记录
func (s *service) GetWithdrawalByUUID(uuid string) (*Withdrawal, error) {
	w, err := s.repo.GetByUUID(uuid)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}
	return w, nil
}

// ListWithdrawals 列出提现记录
func (s *service) ListWithdrawals(userID uint, status WithdrawalStatus, page, pageSize int) ([]*Withdrawal, int64, error) {
	return s.repo.List(userID, status, page, pageSize)
}

func (s *service) releaseHold(holdUUID string) error {
	// 独立小事务，只在创建回滚路径使用
	return s.repo.Transact(func(tx *gorm.DB) error {
		return s.ledgerRepo.ReleaseHoldTx(tx, holdUUID)
	})
}
