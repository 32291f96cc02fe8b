package operator

import (
	"time"

	"gorm.io/gorm"
)

// Operator 后台操作员
type Operator struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role           `gorm:"type:varchar(20);default:admin" json:"role"`
	Status       int            `gorm:"default:1" json:"status"` // 1=active, 0=disabled
	TwoFASecret  string         `gorm:"type:varchar(64)" json:"-"`
	TwoFAEnabled bool           `gorm:"default:false" json:"two_fa_enabled"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	LastLoginIP  string         `gorm:"type:varchar(45)" json:"last_login_ip"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Role 操作员角色
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "reviewer"
)

// OperatorStatus 操作员状态
const (
	OperatorStatusDisabled = 0
	OperatorStatusActive   = 1
)

// TableName 表名
func (Operator) TableName() string {
	return "operators"
}
