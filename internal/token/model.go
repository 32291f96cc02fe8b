package token

import (
	"time"
)

// Token 平台上架的币种，同一基础币种可有多条网络变体
type Token struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Symbol           string     `gorm:"type:varchar(20);uniqueIndex:idx_symbol_network;not null" json:"symbol"`
	BaseSymbol       string     `gorm:"type:varchar(20);index;not null" json:"base_symbol"`
	Name             string     `gorm:"type:varchar(100);not null" json:"name"`
	Blockchain       string     `gorm:"type:varchar(30);not null" json:"blockchain"`
	Network          string     `gorm:"type:varchar(30);uniqueIndex:idx_symbol_network" json:"network"`
	NetworkVersion   string     `gorm:"type:varchar(20)" json:"network_version"` // ERC20, TRC20, BEP20...
	Decimals         int        `gorm:"default:18" json:"decimals"`
	IsActive         bool       `gorm:"default:true;index" json:"is_active"`
	CurrentPrice     string     `gorm:"type:decimal(36,18);default:0" json:"current_price"`
	Price24h         string     `gorm:"type:decimal(36,18);default:0" json:"price_24h"`
	ChangePercent24h string     `gorm:"type:decimal(10,4);default:0" json:"change_percent_24h"`
	Volume24h        string     `gorm:"type:decimal(36,18);default:0" json:"volume_24h"`
	MarketCap        string     `gorm:"type:decimal(36,18);default:0" json:"market_cap"`
	LastPriceUpdate  *time.Time `gorm:"index" json:"last_price_update"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PricePoint 价格历史点
type PricePoint struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TokenID   uint      `gorm:"index:idx_price_token_time;not null" json:"token_id"`
	Price     string    `gorm:"type:decimal(36,18);not null" json:"price"`
	Timestamp time.Time `gorm:"index:idx_price_token_time;not null" json:"timestamp"`
}

// TableName 表名
func (Token) TableName() string {
	return "tokens"
}

func (PricePoint) TableName() string {
	return "price_points"
}
