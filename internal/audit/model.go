package audit

import (
	"time"
)

// AuditLog 操作员审计日志
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OperatorID  uint      `gorm:"index" json:"operator_id"`
	Module      string    `gorm:"type:varchar(50);index;not null" json:"module"`
	Action      string    `gorm:"type:varchar(50);index;not null" json:"action"`
	ResourceID  string    `gorm:"type:varchar(100)" json:"resource_id"`
	Description string    `gorm:"type:text" json:"description"`
	IP          string    `gorm:"type:varchar(45)" json:"ip"`
	UserAgent   string    `gorm:"type:varchar(500)" json:"user_agent"`
	Status      int       `gorm:"default:1" json:"status"` // 1=success, 0=failed
	ErrorMsg    string    `gorm:"type:text" json:"error_msg"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// Module 模块常量
const (
	ModuleDeposit    = "deposit"
	ModuleWithdrawal = "withdrawal"
	ModuleToken      = "token"
	ModulePricing    = "pricing"
	ModuleOperator   = "operator"
)

// Action 操作常量
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionProcess    = "process"
	ActionConfirm    = "confirm"
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionRefresh    = "refresh"
	ActionLogin      = "login"
)

// TableName 表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
