package ledger

import (
	"time"
)

// WalletType 钱包类型
type WalletType string

const (
	WalletTypeSpot    WalletType = "spot"    // 现货钱包
	WalletTypeFunding WalletType = "funding" // 资金钱包
)

// Balance 用户余额，按用户+币种+钱包类型一行
type Balance struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"uniqueIndex:idx_balance_owner;not null" json:"user_id"`
	TokenID    uint       `gorm:"uniqueIndex:idx_balance_owner;not null" json:"token_id"`
	WalletType WalletType `gorm:"type:varchar(20);uniqueIndex:idx_balance_owner;not null" json:"wallet_type"`
	Available  string     `gorm:"type:decimal(36,18);default:0" json:"available"`
	Locked     string     `gorm:"type:decimal(36,18);default:0" json:"locked"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// HoldStatus 冻结单状态
type HoldStatus int

const (
	HoldStatusHeld      HoldStatus = 0 // 冻结中
	HoldStatusReleased  HoldStatus = 1 // 已解冻（退回可用）
	HoldStatusFinalized HoldStatus = 2 // 已扣款
)

// Hold 资金冻结单，提现预留资金的一等记录
type Hold struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	TokenID       uint       `gorm:"index;not null" json:"token_id"`
	WalletType    WalletType `gorm:"type:varchar(20);not null" json:"wallet_type"`
	Amount        string     `gorm:"type:decimal(36,18);not null" json:"amount"`
	Status        HoldStatus `gorm:"type:smallint;default:0;index" json:"status"`
	ReferenceType string     `gorm:"type:varchar(30)" json:"reference_type"` // withdrawal
	ReferenceID   string     `gorm:"type:varchar(36);index" json:"reference_id"`
	ReleasedAt    *time.Time `json:"released_at"`
	FinalizedAt   *time.Time `json:"finalized_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Adjustment 余额变动流水，幂等键保证同一业务动作只入账一次
type Adjustment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	IdempotencyKey string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"idempotency_key"`
	UserID         uint       `gorm:"index;not null" json:"user_id"`
	TokenID        uint       `gorm:"index;not null" json:"token_id"`
	WalletType     WalletType `gorm:"type:varchar(20);not null" json:"wallet_type"`
	Delta          string     `gorm:"type:decimal(36,18);not null" json:"delta"`
	Reason         string     `gorm:"type:varchar(100)" json:"reason"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableName 表名
func (Balance) TableName() string {
	return "balances"
}

func (Hold) TableName() string {
	return "holds"
}

func (Adjustment) TableName() string {
	return "adjustments"
}
