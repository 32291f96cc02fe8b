package operator

import (
	"errors"

	"gorm.io/gorm"
)

// Repository 操作员仓储接口
type Repository interface {
	Create(op *Operator) error
	GetByID(id uint) (*Operator, error)
	GetByEmail(email string) (*Operator, error)
	Update(op *Operator) error
	Count() (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository 创建操作员仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create 创建操作员
func (r *repository) Create(op *Operator) error {
	return r.db.Create(op).Error
}

// GetByID 通过ID获取操作员
func (r *repository) GetByID(id uint) (*Operator, error) {
	var op Operator
	if err := r.db.First(&op, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}

// GetByEmail 通过邮箱获取操作员
func (r *repository) GetByEmail(email string) (*Operator, error) {
	var op Operator
	if err := r.db.Where("email = ?", email).First(&op).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}

// Update 更新操作员
func (r *repository) Update(op *Operator) error {
	return r.db.Save(op).Error
}

// Count 操作员数量
func (r *repository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&Operator{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
