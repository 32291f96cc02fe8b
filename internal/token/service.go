package token

import (
	"errors"
	"time"

	"exchange-ledger/pkg/logger"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExists   = errors.New("token already exists")
)

// Service 币种服务接口
type Service interface {
	CreateToken(token *Token) error
	GetToken(tokenID uint) (*Token, error)
	GetTokenBySymbol(symbol, network string) (*Token, error)
	ListTokens(blockchain string, activeOnly bool) ([]*Token, error)
	UpdateToken(token *Token) error
	ActivateToken(tokenID uint) error
	DeactivateToken(tokenID uint) error
	GetPriceHistory(tokenID uint, window time.Duration) ([]*PricePoint, error)
}

type service struct {
	repo Repository
}

// NewService 创建币种服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CreateToken 创建币种
func (s *service) CreateToken(token *Token) error {
	existing, _ := s.repo.GetBySymbol(token.Symbol, token.Network)
	if existing != nil {
		return ErrTokenExists
	}
	if token.BaseSymbol == "" {
		token.BaseSymbol = token.Symbol
	}
	if err := s.repo.Create(token); err != nil {
		return err
	}
	logger.Infof("Token created: %s on %s/%s", token.Symbol, token.Blockchain, token.Network)
	return nil
}

// GetToken 获取币种
func (s *service) GetToken(tokenID uint) (*Token, error) {
	token, err := s.repo.GetByID(tokenID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// GetTokenBySymbol 通过符号获取币种
func (s *service) GetTokenBySymbol(symbol, network string) (*Token, error) {
	token, err := s.repo.GetBySymbol(symbol, network)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// ListTokens 列出币种
func (s *service) ListTokens(blockchain string, activeOnly bool) ([]*Token, error) {
	return s.repo.List(blockchain, activeOnly)
}

// UpdateToken 更新币种
func (s *service) UpdateToken(token *Token) error {
	return s.repo.Update(token)
}

// ActivateToken 启用币种
func (s *service) ActivateToken(tokenID uint) error {
	return s.setActive(tokenID, true)
}

// DeactivateToken 停用币种
func (s *service) DeactivateToken(tokenID uint) error {
	return s.setActive(tokenID, false)
}

func (s *service) setActive(tokenID uint, active bool) error {
	token, err := s.repo.GetByID(tokenID)
	if err != nil {
		return err
	}
	if token == nil {
		return ErrTokenNotFound
	}
	token.IsActive = active
	if err := s.repo.Update(token); err != nil {
		return err
	}
	logger.Infof("Token %s active=%v", token.Symbol, active)
	return nil
}

// GetPriceHistory 获取价格历史
func (s *service) GetPriceHistory(tokenID uint, window time.Duration) ([]*PricePoint, error) {
	token, err := s.repo.GetByID(tokenID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}
	return s.repo.ListPriceHistory(tokenID, time.Now().Add(-window))
}
