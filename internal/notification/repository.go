package notification

import (
	"gorm.io/gorm"
)

// Repository 通知仓储接口
type Repository interface {
	Create(n *Notification) error
	ListPending(limit int) ([]*Notification, error)
	Update(n *Notification) error
	List(page, pageSize int) ([]*Notification, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository 创建通知仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(n *Notification) error {
	return r.db.Create(n).Error
}

func (r *repository) ListPending(limit int) ([]*Notification, error) {
	var notifications []*Notification
	if err := r.db.Where("status = 0 AND retry_count < 3").
		Order("created_at ASC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repository) Update(n *Notification) error {
	return r.db.Save(n).Error
}

func (r *repository) List(page, pageSize int) ([]*Notification, int64, error) {
	var notifications []*Notification
	var total int64

	if err := r.db.Model(&Notification{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := r.db.Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}
