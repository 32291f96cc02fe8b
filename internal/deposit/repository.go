package deposit

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository 充值仓储接口
type Repository interface {
	Create(deposit *Deposit) error
	GetByID(id uint) (*Deposit, error)
	GetByTxHash(blockchain, txHash string) (*Deposit, error)
	List(userID uint, status DepositStatus, page, pageSize int) ([]*Deposit, int64, error)
	Update(deposit *Deposit) error

	// UpdateProgress 推进确认数，仅对未入账的记录生效
	UpdateProgress(id uint, confirmations int, status DepositStatus) error

	// ConfirmAndCredit 状态翻转与入账绑定为同一事务：
	// 只有状态仍处于pending/confirming时翻转才生效，否则返回ErrDepositNotPending。
	ConfirmAndCredit(id uint, confirmations int, credit func(tx *gorm.DB) error) error

	// MarkFailed 标记失败，仅对非终态记录生效
	MarkFailed(id uint, reason string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository 创建充值仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create 创建充值记录
func (r *repository) Create(deposit *Deposit) error {
	return r.db.Create(deposit).Error
}

// GetByID 通过ID获取充值记录
func (r *repository) GetByID(id uint) (*Deposit, error) {
	var deposit Deposit
	if err := r.db.First(&deposit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &deposit, nil
}

// GetByTxHash 通过交易哈希获取充值记录
func (r *repository) GetByTxHash(blockchain, txHash string) (*Deposit, error) {
	var deposit Deposit
	if err := r.db.Where("blockchain = ? AND tx_hash = ?", blockchain, txHash).
		First(&deposit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &deposit, nil
}

// List 列出充值记录
func (r *repository) List(userID uint, status DepositStatus, page, pageSize int) ([]*Deposit, int64, error) {
	var deposits []*Deposit
	var total int64

	query := r.db.Model(&Deposit{})
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
		Find(&deposits).Error; err != nil {
		return nil, 0, err
	}

	return deposits, total, nil
}

// Update 更新充值记录
func (r *repository) Update(deposit *Deposit) error {
	return r.db.Save(deposit).Error
}

// UpdateProgress 推进确认数
func (r *repository) UpdateProgress(id uint, confirmations int, status DepositStatus) error {
	result := r.db.Model(&Deposit{}).
		Where("id = ? AND status IN ?", id, []DepositStatus{DepositStatusPending, DepositStatusConfirming}).
		Updates(map[string]interface{}{
			"confirmations": confirmations,
			"status":        status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDepositNotPending
	}
	return nil
}

// ConfirmAndCredit 确认并入账
func (r *repository) ConfirmAndCredit(id uint, confirmations int, credit func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&Deposit{}).
			Where("id = ? AND status IN ?", id, []DepositStatus{DepositStatusPending, DepositStatusConfirming}).
			Updates(map[string]interface{}{
				"confirmations": confirmations,
				"status":        DepositStatusConfirmed,
				"credited_at":   &now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDepositNotPending
		}
		return credit(tx)
	})
}

// MarkFailed 标记失败
func (r *repository) MarkFailed(id uint, reason string) error {
	result := r.db.Model(&Deposit{}).
		Where("id = ? AND status IN ?", id, []DepositStatus{DepositStatusPending, DepositStatusConfirming}).
		Updates(map[string]interface{}{
			"status":         DepositStatusFailed,
			"failure_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDepositNotPending
	}
	return nil
}
