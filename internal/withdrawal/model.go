package withdrawal

import (
	"time"

	"gorm.io/gorm"
)

// Withdrawal 提现记录
type Withdrawal struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UUID             string           `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	UserID           uint             `gorm:"index;not null" json:"user_id"`
	TokenID          uint             `gorm:"index;not null" json:"token_id"`
	Address          string           `gorm:"type:varchar(255);not null" json:"address"`
	Amount           string           `gorm:"type:decimal(36,18);not null" json:"amount"`
	Fee              string           `gorm:"type:decimal(36,18);default:0" json:"fee"`
	Network          string           `gorm:"type:varchar(30)" json:"network"`
	NetworkVersion   string           `gorm:"type:varchar(20)" json:"network_version"`
	Memo             string           `gorm:"type:varchar(500)" json:"memo"`
	TxHash           string           `gorm:"type:varchar(255);index" json:"tx_hash"`
	Status           WithdrawalStatus `gorm:"type:smallint;default:0;index" json:"status"`
	HoldUUID         string           `gorm:"type:varchar(36);index;not null" json:"hold_uuid"`
	TokenSymbol      string           `gorm:"type:varchar(20)" json:"token_symbol"`
	TokenName        string           `gorm:"type:varchar(100)" json:"token_name"`
	AmountUSD        string           `gorm:"type:decimal(36,18);default:0" json:"amount_usd"`
	FeeUSD           string           `gorm:"type:decimal(36,18);default:0" json:"fee_usd"`
	ReceiveAmount    string           `gorm:"type:decimal(36,18);default:0" json:"receive_amount"`
	ProcessingReason string           `gorm:"type:text" json:"processing_reason"`
	ProcessedBy      uint             `gorm:"default:0" json:"processed_by"`
	ProcessedAt      *time.Time       `json:"processed_at"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}

// WithdrawalStatus 提现状态
type WithdrawalStatus int

const (
	WithdrawalStatusPending    WithdrawalStatus = 0 // 待处理
	WithdrawalStatusProcessing WithdrawalStatus = 1 // 处理中
	WithdrawalStatusCompleted  WithdrawalStatus = 2 // 已完成（终态）
	WithdrawalStatusFailed     WithdrawalStatus = 3 // 失败（终态）
	WithdrawalStatusCancelled  WithdrawalStatus = 4 // 已取消（终态）
)

// IsTerminal 是否终态
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusFailed || s == WithdrawalStatusCancelled
}

// TableName 表名
func (Withdrawal) TableName() string {
	return "withdrawals"
}
