package token

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository 币种仓储接口
type Repository interface {
	Create(token *Token) error
	GetByID(id uint) (*Token, error)
	GetBySymbol(symbol, network string) (*Token, error)
	List(blockchain string, activeOnly bool) ([]*Token, error)
	ListActiveByStaleness() ([]*Token, error)
	Update(token *Token) error
	UpdatePriceFields(tokenID uint, currentPrice, price24h, changePercent24h, volume24h, marketCap string, updatedAt time.Time) error
	AppendPricePoint(point *PricePoint) error
	ListPriceHistory(tokenID uint, since time.Time) ([]*PricePoint, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository 创建币种仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create 创建币种
func (r *repository) Create(token *Token) error {
	return r.db.Create(token).Error
}

// GetByID 通过ID获取币种
func (r *repository) GetByID(id uint) (*Token, error) {
	var token Token
	if err := r.db.First(&token, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// GetBySymbol 通过符号和网络获取币种
func (r *repository) GetBySymbol(symbol, network string) (*Token, error) {
	var token Token
	if err := r.db.Where("symbol = ? AND network = ?", symbol, network).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// List 列出币种
func (r *repository) List(blockchain string, activeOnly bool) ([]*Token, error) {
	var tokens []*Token
	query := r.db.Model(&Token{})
	if blockchain != "" {
		query = query.Where("blockchain = ?", blockchain)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("base_symbol ASC, id ASC").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// ListActiveByStaleness 列出启用币种，最久未更新价格的排前面
func (r *repository) ListActiveByStaleness() ([]*Token, error) {
	var tokens []*Token
	if err := r.db.Where("is_active = ?", true).
		Order("last_price_update ASC NULLS FIRST").
		Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// Update 更新币种
func (r *repository) Update(token *Token) error {
	return r.db.Save(token).Error
}

// UpdatePriceFields 更新价格字段
func (r *repository) UpdatePriceFields(tokenID uint, currentPrice, price24h, changePercent24h, volume24h, marketCap string, updatedAt time.Time) error {
	return r.db.Model(&Token{}).Where("id = ?", tokenID).Updates(map[string]interface{}{
		"current_price":      currentPrice,
		"price_24h":          price24h,
		"change_percent_24h": changePercent24h,
		"volume_24h":         volume24h,
		"market_cap":         marketCap,
		"last_price_update":  updatedAt,
	}).Error
}

// AppendPricePoint 追加价格历史点
func (r *repository) AppendPricePoint(point *PricePoint) error {
	return r.db.Create(point).Error
}

// ListPriceHistory 列出价格历史
func (r *repository) ListPriceHistory(tokenID uint, since time.Time) ([]*PricePoint, error) {
	var points []*PricePoint
	if err := r.db.Where("token_id = ? AND timestamp >= ?", tokenID, since).
		Order("timestamp ASC").Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}
