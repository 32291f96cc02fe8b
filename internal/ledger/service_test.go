package ledger

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLedgerRepo struct {
	balances map[string]*Balance
	holds    map[string]*Hold
	credits  map[string]string // idemKey -> amount
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		balances: make(map[string]*Balance),
		holds:    make(map[string]*Hold),
		credits:  make(map[string]string),
	}
}

func balanceKey(userID, tokenID uint, walletType WalletType) string {
	return fmt.Sprintf("%d:%d:%s", userID, tokenID, walletType)
}

func (r *fakeLedgerRepo) GetBalance(userID, tokenID uint, walletType WalletType) (*Balance, error) {
	b, ok := r.balances[balanceKey(userID, tokenID, walletType)]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (r *fakeLedgerRepo) ListBalancesByUserID(userID uint) ([]*Balance, error) {
	var out []*Balance
	for _, b := range r.balances {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) GetHoldByUUID(uuid string) (*Hold, error) {
	h, ok := r.holds[uuid]
	if !ok {
		return nil, nil
	}
	return h, nil
}

func (r *fakeLedgerRepo) GetAdjustmentByKey(idemKey string) (*Adjustment, error) {
	amount, ok := r.credits[idemKey]
	if !ok {
		return nil, nil
	}
	return &Adjustment{IdempotencyKey: idemKey, Delta: amount}, nil
}

func (r *fakeLedgerRepo) Credit(userID, tokenID uint, walletType WalletType, amount, idemKey, reason string) error {
	return r.CreditTx(nil, userID, tokenID, walletType, amount, idemKey, reason)
}

func (r *fakeLedgerRepo) CreditTx(tx *gorm.DB, userID, tokenID uint, walletType WalletType, amount, idemKey, reason string) error {
	if _, exists := r.credits[idemKey]; exists {
		return nil
	}
	r.credits[idemKey] = amount

	key := balanceKey(userID, tokenID, walletType)
	b, ok := r.balances[key]
	if !ok {
		b = &Balance{UserID: userID, TokenID: tokenID, WalletType: walletType, Available: "0", Locked: "0"}
		r.balances[key] = b
	}
	available := decimal.RequireFromString(b.Available)
	b.Available = available.Add(decimal.RequireFromString(amount)).String()
	return nil
}

func (r *fakeLedgerRepo) PlaceHold(hold *Hold) error {
	r.holds[hold.UUID] = hold
	return nil
}

func (r *fakeLedgerRepo) ReleaseHoldTx(tx *gorm.DB, holdUUID string) error { return nil }

func (r *fakeLedgerRepo) FinalizeHoldTx(tx *gorm.DB, holdUUID, idemKey string) error { return nil }

func TestGetBalance_DefaultsToZero(t *testing.T) {
	svc := NewService(newFakeLedgerRepo())

	b, err := svc.GetBalance(7, 3, WalletTypeSpot)
	require.NoError(t, err)
	assert.Equal(t, "0", b.Available)
	assert.Equal(t, "0", b.Locked)
	assert.Equal(t, uint(7), b.UserID)
}

func TestCredit(t *testing.T) {
	repo := newFakeLedgerRepo()
	svc := NewService(repo)

	require.NoError(t, svc.Credit(7, 3, WalletTypeSpot, decimal.NewFromInt(5), "manual:1", "adjustment"))

	b, err := svc.GetBalance(7, 3, WalletTypeSpot)
	require.NoError(t, err)
	assert.Equal(t, "5", b.Available)

	// replay with the same idempotency key does not double-credit
	require.NoError(t, svc.Credit(7, 3, WalletTypeSpot, decimal.NewFromInt(5), "manual:1", "adjustment"))
	b, _ = svc.GetBalance(7, 3, WalletTypeSpot)
	assert.Equal(t, "5", b.Available)
}

func TestCredit_InvalidAmount(t *testing.T) {
	svc := NewService(newFakeLedgerRepo())

	err := svc.Credit(7, 3, WalletTypeSpot, decimal.Zero, "manual:2", "adjustment")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	err = svc.Credit(7, 3, WalletTypeSpot, decimal.NewFromInt(-1), "manual:3", "adjustment")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestGetHold_NotFound(t *testing.T) {
	svc := NewService(newFakeLedgerRepo())

	_, err := svc.GetHold("missing")
	assert.ErrorIs(t, err, ErrHoldNotFound)
}
