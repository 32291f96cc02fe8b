package deposit

import (
	"fmt"
	"testing"

	"exchange-ledger/internal/ledger"
	"exchange-ledger/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeDepositRepo struct {
	deposits map[uint]*Deposit
	nextID   uint
}

func newFakeDepositRepo() *fakeDepositRepo {
	return &fakeDepositRepo{deposits: make(map[uint]*Deposit), nextID: 1}
}

func (r *fakeDepositRepo) Create(d *Deposit) error {
	d.ID = r.nextID
	r.nextID++
	copied := *d
	r.deposits[d.ID] = &copied
	return nil
}

func (r *fakeDepositRepo) GetByID(id uint) (*Deposit, error) {
	d, ok := r.deposits[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDepositRepo) GetByTxHash(blockchain, txHash string) (*Deposit, error) {
	for _, d := range r.deposits {
		if d.Blockchain == blockchain && d.TxHash == txHash {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeDepositRepo) List(userID uint, status DepositStatus, page, pageSize int) ([]*Deposit, int64, error) {
	var out []*Deposit
	for _, d := range r.deposits {
		if userID > 0 && d.UserID != userID {
			continue
		}
		if status >= 0 && d.Status != status {
			continue
		}
		copied := *d
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *fakeDepositRepo) Update(d *Deposit) error {
	copied := *d
	r.deposits[d.ID] = &copied
	return nil
}

func (r *fakeDepositRepo) UpdateProgress(id uint, confirmations int, status DepositStatus) error {
	d, ok := r.deposits[id]
	if !ok || d.Status.IsTerminal() {
		return ErrDepositNotPending
	}
	d.Confirmations = confirmations
	d.Status = status
	return nil
}

func (r *fakeDepositRepo) ConfirmAndCredit(id uint, confirmations int, credit func(tx *gorm.DB) error) error {
	d, ok := r.deposits[id]
	if !ok || d.Status.IsTerminal() {
		return ErrDepositNotPending
	}
	if err := credit(nil); err != nil {
		return err
	}
	d.Confirmations = confirmations
	d.Status = DepositStatusConfirmed
	return nil
}

func (r *fakeDepositRepo) MarkFailed(id uint, reason string) error {
	d, ok := r.deposits[id]
	if !ok || d.Status.IsTerminal() {
		return ErrDepositNotPending
	}
	d.Status = DepositStatusFailed
	d.FailureReason = reason
	return nil
}

type fakeLedgerRepo struct {
	credits map[string]string // idemKey -> amount
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{credits: make(map[string]string)}
}

func (r *fakeLedgerRepo) GetBalance(userID, tokenID uint, walletType ledger.WalletType) (*ledger.Balance, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) ListBalancesByUserID(userID uint) ([]*ledger.Balance, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) GetHoldByUUID(uuid string) (*ledger.Hold, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) GetAdjustmentByKey(idemKey string) (*ledger.Adjustment, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) Credit(userID, tokenID uint, walletType ledger.WalletType, amount, idemKey, reason string) error {
	return r.CreditTx(nil, userID, tokenID, walletType, amount, idemKey, reason)
}

func (r *fakeLedgerRepo) CreditTx(tx *gorm.DB, userID, tokenID uint, walletType ledger.WalletType, amount, idemKey, reason string) error {
	if _, exists := r.credits[idemKey]; exists {
		return nil
	}
	r.credits[idemKey] = amount
	return nil
}

func (r *fakeLedgerRepo) PlaceHold(hold *ledger.Hold) error { return nil }

func (r *fakeLedgerRepo) ReleaseHoldTx(tx *gorm.DB, holdUUID string) error { return nil }

func (r *fakeLedgerRepo) FinalizeHoldTx(tx *gorm.DB, holdUUID, idemKey string) error { return nil }

type fakeNotifier struct {
	events []notification.EventType
}

func (n *fakeNotifier) Notify(event notification.EventType, payload map[string]interface{}) error {
	n.events = append(n.events, event)
	return nil
}

func newTestDeposit(repo *fakeDepositRepo) *Deposit {
	d := &Deposit{
		UUID:       "dep-uuid-1",
		UserID:     7,
		WalletID:   1,
		TokenID:    3,
		TxHash:     "0xabc",
		Blockchain: "ethereum",
		Network:    "mainnet",
		Amount:     "1.5",
		Status:     DepositStatusPending,
	}
	_ = repo.Create(d)
	return d
}

func TestRecordConfirmation_ThresholdLifecycle(t *testing.T) {
	repo := newFakeDepositRepo()
	ledgerRepo := newFakeLedgerRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, ledgerRepo, notifier)

	d := newTestDeposit(repo)

	// 5/10: below threshold, confirming, no credit
	got, err := svc.RecordConfirmation(d.ID, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, DepositStatusConfirming, got.Status)
	assert.Equal(t, 5, got.Confirmations)
	assert.Empty(t, ledgerRepo.credits)
	assert.Empty(t, notifier.events)

	// 10/10: confirmed, credited exactly once, one notification
	got, err = svc.RecordConfirmation(d.ID, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, DepositStatusConfirmed, got.Status)
	assert.Equal(t, 10, got.Confirmations)
	require.Len(t, ledgerRepo.credits, 1)
	assert.Equal(t, "1.5", ledgerRepo.credits[fmt.Sprintf("deposit:%s", d.UUID)])
	assert.Equal(t, []notification.EventType{notification.EventDepositConfirmed}, notifier.events)
}

func TestRecordConfirmation_IdempotentAfterConfirmed(t *testing.T) {
	repo := newFakeDepositRepo()
	ledgerRepo := newFakeLedgerRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, ledgerRepo, notifier)

	d := newTestDeposit(repo)

	_, err := svc.RecordConfirmation(d.ID, 10, 10)
	require.NoError(t, err)

	// replaying the same confirmation must not double-credit or re-notify
	got, err := svc.RecordConfirmation(d.ID, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, DepositStatusConfirmed, got.Status)
	assert.Len(t, ledgerRepo.credits, 1)
	assert.Len(t, notifier.events, 1)
}

func TestRecordConfirmation_MonotonicCount(t *testing.T) {
	repo := newFakeDepositRepo()
	ledgerRepo := newFakeLedgerRepo()
	svc := NewService(repo, ledgerRepo, &fakeNotifier{})

	d := newTestDeposit(repo)

	_, err := svc.RecordConfirmation(d.ID, 5, 10)
	require.NoError(t, err)

	// lower count is ignored, state stays as it was
	got, err := svc.RecordConfirmation(d.ID, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, DepositStatusConfirming, got.Status)
	assert.Equal(t, 5, got.Confirmations)
	assert.Empty(t, ledgerRepo.credits)
}

func TestRecordConfirmation_InvalidThreshold(t *testing.T) {
	repo := newFakeDepositRepo()
	svc := NewService(repo, newFakeLedgerRepo(), &fakeNotifier{})

	d := newTestDeposit(repo)

	_, err := svc.RecordConfirmation(d.ID, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = svc.RecordConfirmation(d.ID, 5, -1)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestRecordConfirmation_NotFound(t *testing.T) {
	svc := NewService(newFakeDepositRepo(), newFakeLedgerRepo(), &fakeNotifier{})

	_, err := svc.RecordConfirmation(999, 5, 10)
	assert.ErrorIs(t, err, ErrDepositNotFound)
}

func TestRegisterDeposit_DuplicateTxHash(t *testing.T) {
	repo := newFakeDepositRepo()
	svc := NewService(repo, newFakeLedgerRepo(), &fakeNotifier{})

	req := &RegisterDepositRequest{
		UserID:     7,
		WalletID:   1,
		TokenID:    3,
		TxHash:     "0xdef",
		Blockchain: "ethereum",
		Network:    "mainnet",
		Amount:     "2",
	}

	first, err := svc.RegisterDeposit(req)
	require.NoError(t, err)

	// same chain tx registered twice returns the existing record
	second, err := svc.RegisterDeposit(req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.deposits, 1)
}

func TestRegisterDeposit_InvalidAmount(t *testing.T) {
	svc := NewService(newFakeDepositRepo(), newFakeLedgerRepo(), &fakeNotifier{})

	_, err := svc.RegisterDeposit(&RegisterDepositRequest{
		UserID:     7,
		WalletID:   1,
		TokenID:    3,
		TxHash:     "0x1",
		Blockchain: "ethereum",
		Amount:     "-5",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFailDeposit(t *testing.T) {
	repo := newFakeDepositRepo()
	svc := NewService(repo, newFakeLedgerRepo(), &fakeNotifier{})

	d := newTestDeposit(repo)

	require.NoError(t, svc.FailDeposit(d.ID, "invalid memo"))

	got, err := svc.GetDeposit(d.ID)
	require.NoError(t, err)
	assert.Equal(t, DepositStatusFailed, got.Status)
	assert.Equal(t, "invalid memo", got.FailureReason)
}
