package deposit

import (
	"errors"
	"fmt"

	"exchange-ledger/internal/ledger"
	"exchange-ledger/internal/notification"
	"exchange-ledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrDepositNotFound   = errors.New("deposit not found")
	ErrDepositExists     = errors.New("deposit already exists")
	ErrDepositNotPending = errors.New("deposit is not pending")
	ErrInvalidThreshold  = errors.New("invalid confirmation threshold")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Service 充值服务接口
type Service interface {
	// RegisterDeposit 链上监控发现交易时登记充值
	RegisterDeposit(req *RegisterDepositRequest) (*Deposit, error)

	// RecordConfirmation 推进确认数，达到阈值时翻转为confirmed并入账一次
	RecordConfirmation(depositID uint, confirmations, threshold int) (*Deposit, error)

	FailDeposit(depositID uint, reason string) error
	GetDeposit(depositID uint) (*Deposit, error)
	GetDepositByTxHash(blockchain, txHash string) (*Deposit, error)
	ListDeposits(userID uint, status DepositStatus, page, pageSize int) ([]*Deposit, int64, error)
}

type service struct {
	repo       Repository
	ledgerRepo ledger.Repository
	notifier   notification.Notifier
}

// NewService 创建充值服务
func NewService(repo Repository, ledgerRepo ledger.Repository, notifier notification.Notifier) Service {
	return &service{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		notifier:   notifier,
	}
}

// RegisterDepositRequest 登记充值请求
type RegisterDepositRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	WalletID    uint   `json:"wallet_id"`
	TokenID     uint   `json:"token_id" binding:"required"`
	TxHash      string `json:"tx_hash" binding:"required"`
	Blockchain  string `json:"blockchain" binding:"required"`
	Network     string `json:"network"`
	FromAddress string `json:"from_address"`
	Amount      string `json:"amount" binding:"required"`
	Fee         string `json:"fee"`
	Memo        string `json:"memo"`
	BlockNumber uint64 `json:"block_number"`
}

// RegisterDeposit 登记充值
func (s *service) RegisterDeposit(req *RegisterDepositRequest) (*Deposit, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	// 同一链上交易只登记一次
	existing, err := s.repo.GetByTxHash(req.Blockchain, req.TxHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	fee := req.Fee
	if fee == "" {
		fee = "0"
	}

	d := &Deposit{
		UUID:        uuid.New().String(),
		UserID:      req.UserID,
		WalletID:    req.WalletID,
		TokenID:     req.TokenID,
		TxHash:      req.TxHash,
		Blockchain:  req.Blockchain,
		Network:     req.Network,
		FromAddress: req.FromAddress,
		Amount:      amount.String(),
		Fee:         fee,
		Memo:        req.Memo,
		BlockNumber: req.BlockNumber,
		Status:      DepositStatusPending,
	}

	if err := s.repo.Create(d); err != nil {
		return nil, err
	}

	logger.Infof("Deposit registered: %s, %s (token %d) for user %d",
		d.TxHash, d.Amount, d.TokenID, d.UserID)
	return d, nil
}

// RecordConfirmation 记录确认
func (s *service) RecordConfirmation(depositID uint, confirmations, threshold int) (*Deposit, error) {
	if threshold <= 0 {
		return nil, ErrInvalidThreshold
	}

	d, err := s.repo.GetByID(depositID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDepositNotFound
	}

	// 终态幂等：不再变更，也不再入账
	if d.Status.IsTerminal() {
		return d, nil
	}

	// 确认数只允许单调递增，回退视为异常（可能是链重组），忽略不应用
	if confirmations < d.Confirmations {
		logger.Warnf("Deposit %d confirmation count went backwards (%d -> %d), possible chain reorg, ignoring",
			d.ID, d.Confirmations, confirmations)
		return d, nil
	}

	if confirmations < threshold {
		if err := s.repo.UpdateProgress(d.ID, confirmations, DepositStatusConfirming); err != nil {
			if errors.Is(err, ErrDepositNotPending) {
				return s.reload(d.ID)
			}
			return nil, err
		}
		d.Confirmations = confirmations
		d.Status = DepositStatusConfirming
		return d, nil
	}

	// 达到阈值：状态翻转与入账在同一事务提交
	idemKey := fmt.Sprintf("deposit:%s", d.UUID)
	err = s.repo.ConfirmAndCredit(d.ID, confirmations, func(tx *gorm.DB) error {
		return s.ledgerRepo.CreditTx(tx, d.UserID, d.TokenID, ledger.WalletTypeSpot,
			d.Amount, idemKey, "deposit")
	})
	if err != nil {
		if errors.Is(err, ErrDepositNotPending) {
			// 并发调用已完成翻转，返回当前状态
			return s.reload(d.ID)
		}
		return nil, err
	}

	logger.Infof("Deposit confirmed: %s with %d confirmations, credited %s to user %d",
		d.TxHash, confirmations, d.Amount, d.UserID)

	// 通知失败不回滚入账
	if err := s.notifier.Notify(notification.EventDepositConfirmed, map[string]interface{}{
		"deposit_id":    d.ID,
		"deposit_uuid":  d.UUID,
		"user_id":       d.UserID,
		"token_id":      d.TokenID,
		"tx_hash":       d.TxHash,
		"amount":        d.Amount,
		"confirmations": confirmations,
	}); err != nil {
		logger.Errorf("Failed to enqueue deposit confirmed notification for %s: %v", d.UUID, err)
	}

	return s.reload(d.ID)
}

// FailDeposit 标记充值失败
func (s *service) FailDeposit(depositID uint, reason string) error {
	d, err := s.repo.GetByID(depositID)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrDepositNotFound
	}
	if err := s.repo.MarkFailed(depositID, reason); err != nil {
		return err
	}
	logger.Warnf("Deposit failed: %s, reason: %s", d.TxHash, reason)
	return nil
}

// GetDeposit 获取充值记录
func (s *service) GetDeposit(depositID uint) (*Deposit, error) {
	d, err := s.repo.GetByID(depositID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDepositNotFound
	}
	return d, nil
}

// GetDepositByTxHash 通过交易哈希获取充值记录
func (s *service) GetDepositByTxHash(blockchain, txHash string) (*Deposit, error) {
	d, err := s.repo.GetByTxHash(blockchain, txHash)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDepositNotFound
	}
	return d, nil
}

// ListDeposits 列出充值记录
func (s *service) ListDeposits(userID uint, status DepositStatus, page, pageSize int) ([]*Deposit, int64, error) {
	return s.repo.List(userID, status, page, pageSize)
}

func (s *service) reload(id uint) (*Deposit, error) {
	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDepositNotFound
	}
	return d, nil
}
