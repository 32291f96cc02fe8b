package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrBalanceNotFound     = errors.New("balance not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrHoldNotFound        = errors.New("hold not found")
	ErrHoldNotActive       = errors.New("hold is not active")
)

// Repository 账本仓储接口。带Tx后缀的方法在调用方事务内执行，
// 用于和业务状态流转绑成同一提交单元。
type Repository interface {
	GetBalance(userID, tokenID uint, walletType WalletType) (*Balance, error)
	ListBalancesByUserID(userID uint) ([]*Balance, error)
	GetHoldByUUID(uuid string) (*Hold, error)
	GetAdjustmentByKey(idemKey string) (*Adjustment, error)

	Credit(userID, tokenID uint, walletType WalletType, amount, idemKey, reason string) error
	CreditTx(tx *gorm.DB, userID, tokenID uint, walletType WalletType, amount, idemKey, reason string) error

	PlaceHold(hold *Hold) error
	ReleaseHoldTx(tx *gorm.DB, holdUUID string) error
	FinalizeHoldTx(tx *gorm.DB, holdUUID, idemKey string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository 创建账本仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// GetBalance 获取余额
func (r *repository) GetBalance(userID, tokenID uint, walletType WalletType) (*Balance, error) {
	var balance Balance
	if err := r.db.Where("user_id = ? AND token_id = ? AND wallet_type = ?",
		userID, tokenID, walletType).First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// ListBalancesByUserID 获取用户余额列表
func (r *repository) ListBalancesByUserID(userID uint) ([]*Balance, error) {
	var balances []*Balance
	if err := r.db.Where("user_id = ?", userID).Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// GetHoldByUUID 获取冻结单
func (r *repository) GetHoldByUUID(uuid string) (*Hold, error) {
	var hold Hold
	if err := r.db.Where("uuid = ?", uuid).First(&hold).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &hold, nil
}

// GetAdjustmentByKey 通过幂等键获取流水
func (r *repository) GetAdjustmentByKey(idemKey string) (*Adjustment, error) {
	var adj Adjustment
	if err := r.db.Where("idempotency_key = ?", idemKey).First(&adj).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &adj, nil
}

// Credit 入账（独立事务）
func (r *repository) Credit(userID, tokenID uint, walletType WalletType, amount, idemKey, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return r.CreditTx(tx, userID, tokenID, walletType, amount, idemKey, reason)
	})
}

// CreditTx 入账。幂等键已存在时不重复入账。
func (r *repository) CreditTx(tx *gorm.DB, userID, tokenID uint, walletType WalletType, amount, idemKey, reason string) error {
	var existing Adjustment
	err := tx.Where("idempotency_key = ?", idemKey).First(&existing).Error
	if err == nil {
		return nil // 已入账
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	adj := &Adjustment{
		IdempotencyKey: idemKey,
		UserID:         userID,
		TokenID:        tokenID,
		WalletType:     walletType,
		Delta:          amount,
		Reason:         reason,
	}
	if err := tx.Create(adj).Error; err != nil {
		return err
	}

	result := tx.Model(&Balance{}).
		Where("user_id = ? AND token_id = ? AND wallet_type = ?", userID, tokenID, walletType).
		Update("available", gorm.Expr("available + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 余额行不存在，创建
		return tx.Create(&Balance{
			UserID:     userID,
			TokenID:    tokenID,
			WalletType: walletType,
			Available:  amount,
			Locked:     "0",
		}).Error
	}
	return nil
}

// PlaceHold 冻结资金：可用转入锁定并创建冻结单
func (r *repository) PlaceHold(hold *Hold) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Balance{}).
			Where("user_id = ? AND token_id = ? AND wallet_type = ?",
				hold.UserID, hold.TokenID, hold.WalletType).
			Where("available >= ?", hold.Amount).
			Updates(map[string]interface{}{
				"available": gorm.Expr("available - ?", hold.Amount),
				"locked":    gorm.Expr("locked + ?", hold.Amount),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		hold.Status = HoldStatusHeld
		return tx.Create(hold).Error
	})
}

// ReleaseHoldTx 解冻：锁定退回可用。冻结单必须处于held状态，
// 状态条件写在UPDATE里，保证释放只发生一次。
func (r *repository) ReleaseHoldTx(tx *gorm.DB, holdUUID string) error {
	hold, err := r.lockHold(tx, holdUUID)
	if err != nil {
		return err
	}

	now := time.Now()
	result := tx.Model(&Hold{}).
		Where("uuid = ? AND status = ?", holdUUID, HoldStatusHeld).
		Updates(map[string]interface{}{
			"status":      HoldStatusReleased,
			"released_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrHoldNotActive
	}

	return tx.Model(&Balance{}).
		Where("user_id = ? AND token_id = ? AND wallet_type = ?",
			hold.UserID, hold.TokenID, hold.WalletType).
		Where("locked >= ?", hold.Amount).
		Updates(map[string]interface{}{
			"locked":    gorm.Expr("locked - ?", hold.Amount),
			"available": gorm.Expr("available + ?", hold.Amount),
		}).Error
}

// FinalizeHoldTx 扣款：锁定资金正式扣除并记幂等流水
func (r *repository) FinalizeHoldTx(tx *gorm.DB, holdUUID, idemKey string) error {
	hold, err := r.lockHold(tx, holdUUID)
	if err != nil {
		return err
	}

	now := time.Now()
	result := tx.Model(&Hold{}).
		Where("uuid = ? AND status = ?", holdUUID, HoldStatusHeld).
		Updates(map[string]interface{}{
			"status":       HoldStatusFinalized,
			"finalized_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrHoldNotActive
	}

	if err := tx.Model(&Balance{}).
		Where("user_id = ? AND token_id = ? AND wallet_type = ?",
			hold.UserID, hold.TokenID, hold.WalletType).
		Where("locked >= ?", hold.Amount).
		Update("locked", gorm.Expr("locked - ?", hold.Amount)).Error; err != nil {
		return err
	}

	return tx.Create(&Adjustment{
		IdempotencyKey: idemKey,
		UserID:         hold.UserID,
		TokenID:        hold.TokenID,
		WalletType:     hold.WalletType,
		Delta:          "-" + hold.Amount,
		Reason:         "withdrawal",
	}).Error
}

func (r *repository) lockHold(tx *gorm.DB, holdUUID string) (*Hold, error) {
	var hold Hold
	if err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("uuid = ?", holdUUID).First(&hold).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return &hold, nil
}
