package notification

import (
	"time"
)

// EventType 通知事件类型
type EventType string

const (
	EventDepositConfirmed    EventType = "deposit_confirmed"
	EventWithdrawalProcessed EventType = "withdrawal_processed"
	EventPriceRefreshFailed  EventType = "price_refresh_failed"
)

// Channel 通知渠道
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
)

// Notification 通知记录，先落库再由worker异步投递
type Notification struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	EventType  EventType  `gorm:"type:varchar(50);index;not null" json:"event_type"`
	Channel    Channel    `gorm:"type:varchar(20);not null" json:"channel"`
	Recipient  string     `gorm:"type:varchar(255)" json:"recipient"`
	Subject    string     `gorm:"type:varchar(200)" json:"subject"`
	Payload    string     `gorm:"type:text" json:"payload"` // JSON
	Status     int        `gorm:"default:0;index" json:"status"` // 0=pending, 1=sent, 2=failed
	RetryCount int        `gorm:"default:0" json:"retry_count"`
	ErrorMsg   string     `gorm:"type:text" json:"error_msg"`
	SentAt     *time.Time `json:"sent_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName 表名
func (Notification) TableName() string {
	return "notifications"
}
