package audit

import (
	"time"

	"exchange-ledger/pkg/logger"

	"gorm.io/gorm"
)

// Repository 审计仓储接口
type Repository interface {
	Create(log *AuditLog) error
	List(filter *ListFilter) ([]*AuditLog, int64, error)
}

// ListFilter 列表过滤条件
type ListFilter struct {
	OperatorID uint
	Module     string
	Action     string
	StartTime  *time.Time
	EndTime    *time.Time
	Page       int
	PageSize   int
}

type repository struct {
	db *gorm.DB
}

// NewRepository 创建审计仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create 创建审计日志
func (r *repository) Create(log *AuditLog) error {
	return r.db.Create(log).Error
}

// List 列出审计日志
func (r *repository) List(filter *ListFilter) ([]*AuditLog, int64, error) {
	var logs []*AuditLog
	var total int64

	query := r.db.Model(&AuditLog{})

	if filter.OperatorID > 0 {
		query = query.Where("operator_id = ?", filter.OperatorID)
	}
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", filter.EndTime)
	}

	query.Count(&total)

	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(filter.PageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// Service 审计服务接口
type Service interface {
	// Record 记录操作员动作。审计失败只记日志，不影响主流程。
	Record(entry *LogEntry)
	ListLogs(filter *ListFilter) ([]*AuditLog, int64, error)
}

type service struct {
	repo Repository
}

// NewService 创建审计服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// LogEntry 日志条目
type LogEntry struct {
	OperatorID  uint
	Module      string
	Action      string
	ResourceID  string
	Description string
	IP          string
	UserAgent   string
	Status      int
	ErrorMsg    string
}

// Record 记录操作员动作
func (s *service) Record(entry *LogEntry) {
	log := &AuditLog{
		OperatorID:  entry.OperatorID,
		Module:      entry.Module,
		Action:      entry.Action,
		ResourceID:  entry.ResourceID,
		Description: entry.Description,
		IP:          entry.IP,
		UserAgent:   entry.UserAgent,
		Status:      entry.Status,
		ErrorMsg:    entry.ErrorMsg,
	}
	if err := s.repo.Create(log); err != nil {
		logger.Errorf("Failed to write audit log (%s/%s by operator %d): %v",
			entry.Module, entry.Action, entry.OperatorID, err)
	}
}

// ListLogs 列出日志
func (s *service) ListLogs(filter *ListFilter) ([]*AuditLog, int64, error) {
	return s.repo.List(filter)
}
