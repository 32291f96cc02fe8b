package deposit

import (
	"time"

	"gorm.io/gorm"
)

// Deposit 充值记录
type Deposit struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UUID          string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	UserID        uint           `gorm:"index;not null" json:"user_id"`
	WalletID      uint           `gorm:"index" json:"wallet_id"`
	TokenID       uint           `gorm:"index;not null" json:"token_id"`
	TxHash        string         `gorm:"type:varchar(255);uniqueIndex:idx_deposit_tx;not null" json:"tx_hash"`
	Blockchain    string         `gorm:"type:varchar(30);uniqueIndex:idx_deposit_tx;not null" json:"blockchain"`
	Network       string         `gorm:"type:varchar(30)" json:"network"`
	FromAddress   string         `gorm:"type:varchar(255)" json:"from_address"`
	Amount        string         `gorm:"type:decimal(36,18);not null" json:"amount"`
	Fee           string         `gorm:"type:decimal(36,18);default:0" json:"fee"`
	Memo          string         `gorm:"type:varchar(500)" json:"memo"`
	BlockNumber   uint64         `gorm:"default:0" json:"block_number"`
	Confirmations int            `gorm:"default:0" json:"confirmations"`
	Status        DepositStatus  `gorm:"type:smallint;default:0;index" json:"status"`
	FailureReason string         `gorm:"type:text" json:"failure_reason"`
	CreditedAt    *time.Time     `json:"credited_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// DepositStatus 充值状态
type DepositStatus int

const (
	DepositStatusPending    DepositStatus = 0 // 待确认
	DepositStatusConfirming DepositStatus = 1 // 确认中
	DepositStatusConfirmed  DepositStatus = 2 // 已确认并入账（终态）
	DepositStatusFailed     DepositStatus = 3 // 失败（终态）
)

// IsTerminal 是否终态
func (s DepositStatus) IsTerminal() bool {
	return s == DepositStatusConfirmed || s == DepositStatusFailed
}

// TableName 表名
func (Deposit) TableName() string {
	return "deposits"
}
