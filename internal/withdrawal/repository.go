package withdrawal

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository 提现仓储接口
type Repository interface {
	Create(w *Withdrawal) error
	GetByID(id uint) (*Withdrawal, error)
	GetByUUID(uuid string) (*Withdrawal, error)
	List(userID uint, status WithdrawalStatus, page, pageSize int) ([]*Withdrawal, int64, error)
	Update(w *Withdrawal) error

	// MarkProcessed 终态翻转与资金动作绑定为同一事务。
	// WHERE status = pending 保证并发处理只有一个赢家，
	// 没抢到的调用拿到ErrWithdrawalNotPending。
	MarkProcessed(id uint, status WithdrawalStatus, txHash, reason string, operatorID uint, fn func(tx *gorm.DB) error) error

	// Transact 在单个事务内执行fn
	Transact(fn func(tx *gorm.DB) error) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository 创建提现仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create 创建提现记录
func (r *repository) Create(w *Withdrawal) error {
	return r.db.Create(w).Error
}

// GetByID 通过ID获取提现记录
func (r *repository) GetByID(id uint) (*Withdrawal, error) {
	var w Withdrawal
	if err := r.db.First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

// GetByUUID 通过UUID获取提现记录
func (r *repository) GetByUUID(uuid string) (*Withdrawal, error) {
	var w Withdrawal
	if err := r.db.Where("uuid = ?", uuid).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

// List 列出提现记录
func (r *repository) List(userID uint, status WithdrawalStatus, page, pageSize int) ([]*Withdrawal, int64, error) {
	var withdrawals []*Withdrawal
	var total int64

	query := r.db.Model(&Withdrawal{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if status >= 0 {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&withdrawals).Error; err != nil {
		return nil, 0, err
	}

	return withdrawals, total, nil
}

// Update 更新提现记录
func (r *repository) Update(w *Withdrawal) error {
	return r.db.Save(w).Error
}

// Transact 事务执行
func (r *repository) Transact(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// MarkProcessed 终态翻转
func (r *repository) MarkProcessed(id uint, status WithdrawalStatus, txHash, reason string, operatorID uint, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"status":       status,
			"processed_by": operatorID,
			"processed_at": &now,
		}
		if txHash != "" {
			updates["tx_hash"] = txHash
		}
		if reason != "" {
			updates["processing_reason"] = reason
		}

		result := tx.Model(&Withdrawal{}).
			Where("id = ? AND status = ?", id, WithdrawalStatusPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrWithdrawalNotPending
		}
		return fn(tx)
	})
}
