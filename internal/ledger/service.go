package ledger

import (
	"errors"

	"exchange-ledger/pkg/logger"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Service 账本服务接口
type Service interface {
	GetBalance(userID, tokenID uint, walletType WalletType) (*Balance, error)
	ListBalances(userID uint) ([]*Balance, error)
	GetHold(uuid string) (*Hold, error)

	// Credit 管理端手工入账，幂等键防止重复提交
	Credit(userID, tokenID uint, walletType WalletType, amount decimal.Decimal, idemKey, reason string) error
}

type service struct {
	repo Repository
}

// NewService 创建账本服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// GetBalance 获取余额，没有记录时返回零余额
func (s *service) GetBalance(userID, tokenID uint, walletType WalletType) (*Balance, error) {
	balance, err := s.repo.GetBalance(userID, tokenID, walletType)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return &Balance{
			UserID:     userID,
			TokenID:    tokenID,
			WalletType: walletType,
			Available:  "0",
			Locked:     "0",
		}, nil
	}
	return balance, nil
}

// ListBalances 列出用户余额
func (s *service) ListBalances(userID uint) ([]*Balance, error) {
	return s.repo.ListBalancesByUserID(userID)
}

// GetHold 获取冻结单
func (s *service) GetHold(uuid string) (*Hold, error) {
	hold, err := s.repo.GetHoldByUUID(uuid)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		return nil, ErrHoldNotFound
	}
	return hold, nil
}

// Credit 入账
func (s *service) Credit(userID, tokenID uint, walletType WalletType, amount decimal.Decimal, idemKey, reason string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if err := s.repo.Credit(userID, tokenID, walletType, amount.String(), idemKey, reason); err != nil {
		return err
	}
	logger.Infof("Balance credited: user %d token %d %s +%s (%s)",
		userID, tokenID, walletType, amount.String(), reason)
	return nil
}
