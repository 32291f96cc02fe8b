package withdrawal

import (
	"testing"
	"time"

	"exchange-ledger/internal/ledger"
	"exchange-ledger/internal/notification"
	"exchange-ledger/internal/operator"
	"exchange-ledger/internal/token"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeWithdrawalRepo struct {
	withdrawals map[uint]*Withdrawal
	nextID      uint
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{withdrawals: make(map[uint]*Withdrawal), nextID: 1}
}

func (r *fakeWithdrawalRepo) Create(w *Withdrawal) error {
	w.ID = r.nextID
	r.nextID++
	copied := *w
	r.withdrawals[w.ID] = &copied
	return nil
}

func (r *fakeWithdrawalRepo) GetByID(id uint) (*Withdrawal, error) {
	w, ok := r.withdrawals[id]
	if !ok {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (r *fakeWithdrawalRepo) GetByUUID(uuid string) (*Withdrawal, error) {
	for _, w := range r.withdrawals {
		if w.UUID == uuid {
			copied := *w
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeWithdrawalRepo) List(userID uint, status WithdrawalStatus, page, pageSize int) ([]*Withdrawal, int64, error) {
	var out []*Withdrawal
	for _, w := range r.withdrawals {
		if userID > 0 && w.UserID != userID {
			continue
		}
		if status >= 0 && w.Status != status {
			continue
		}
		copied := *w
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *fakeWithdrawalRepo) Update(w *Withdrawal) error {
	copied := *w
	r.withdrawals[w.ID] = &copied
	return nil
}

func (r *fakeWithdrawalRepo) MarkProcessed(id uint, status WithdrawalStatus, txHash, reason string, operatorID uint, fn func(tx *gorm.DB) error) error {
	w, ok := r.withdrawals[id]
	if !ok || w.Status != WithdrawalStatusPending {
		return ErrWithdrawalNotPending
	}
	if err := fn(nil); err != nil {
		return err
	}
	now := time.Now()
	w.Status = status
	w.ProcessedBy = operatorID
	w.ProcessedAt = &now
	if txHash != "" {
		w.TxHash = txHash
	}
	if reason != "" {
		w.ProcessingReason = reason
	}
	return nil
}

func (r *fakeWithdrawalRepo) Transact(fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// fakeHoldLedger tracks one user's spot balance and its holds
type fakeHoldLedger struct {
	available decimal.Decimal
	locked    decimal.Decimal
	holds     map[string]*ledger.Hold
	finalized []string // idempotency keys
}

func newFakeHoldLedger(available string) *fakeHoldLedger {
	return &fakeHoldLedger{
		available: decimal.RequireFromString(available),
		locked:    decimal.Zero,
		holds:     make(map[string]*ledger.Hold),
	}
}

func (l *fakeHoldLedger) GetBalance(userID, tokenID uint, walletType ledger.WalletType) (*ledger.Balance, error) {
	return &ledger.Balance{Available: l.available.String(), Locked: l.locked.String()}, nil
}

func (l *fakeHoldLedger) ListBalancesByUserID(userID uint) ([]*ledger.Balance, error) {
	return nil, nil
}

func (l *fakeHoldLedger) GetHoldByUUID(uuid string) (*ledger.Hold, error) {
	h, ok := l.holds[uuid]
	if !ok {
		return nil, nil
	}
	return h, nil
}

func (l *fakeHoldLedger) GetAdjustmentByKey(idemKey string) (*ledger.Adjustment, error) {
	return nil, nil
}

func (l *fakeHoldLedger) Credit(userID, tokenID uint, walletType ledger.WalletType, amount, idemKey, reason string) error {
	return nil
}

func (l *fakeHoldLedger) CreditTx(tx *gorm.DB, userID, tokenID uint, walletType ledger.WalletType, amount, idemKey, reason string) error {
	return nil
}

func (l *fakeHoldLedger) PlaceHold(hold *ledger.Hold) error {
	amount := decimal.RequireFromString(hold.Amount)
	if l.available.LessThan(amount) {
		return ledger.ErrInsufficientBalance
	}
	l.available = l.available.Sub(amount)
	l.locked = l.locked.Add(amount)
	hold.Status = ledger.HoldStatusHeld
	copied := *hold
	l.holds[hold.UUID] = &copied
	return nil
}

func (l *fakeHoldLedger) ReleaseHoldTx(tx *gorm.DB, holdUUID string) error {
	h, ok := l.holds[holdUUID]
	if !ok {
		return ledger.ErrHoldNotFound
	}
	if h.Status != ledger.HoldStatusHeld {
		return ledger.ErrHoldNotActive
	}
	amount := decimal.RequireFromString(h.Amount)
	l.locked = l.locked.Sub(amount)
	l.available = l.available.Add(amount)
	h.Status = ledger.HoldStatusReleased
	return nil
}

func (l *fakeHoldLedger) FinalizeHoldTx(tx *gorm.DB, holdUUID, idemKey string) error {
	h, ok := l.holds[holdUUID]
	if !ok {
		return ledger.ErrHoldNotFound
	}
	if h.Status != ledger.HoldStatusHeld {
		return ledger.ErrHoldNotActive
	}
	amount := decimal.RequireFromString(h.Amount)
	l.locked = l.locked.Sub(amount)
	h.Status = ledger.HoldStatusFinalized
	l.finalized = append(l.finalized, idemKey)
	return nil
}

type fakeTokenRepo struct {
	tokens map[uint]*token.Token
}

func (r *fakeTokenRepo) Create(t *token.Token) error { return nil }

func (r *fakeTokenRepo) GetByID(id uint) (*token.Token, error) {
	t, ok := r.tokens[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (r *fakeTokenRepo) GetBySymbol(symbol, network string) (*token.Token, error) {
	return nil, nil
}

func (r *fakeTokenRepo) List(blockchain string, activeOnly bool) ([]*token.Token, error) {
	return nil, nil
}

func (r *fakeTokenRepo) ListActiveByStaleness() ([]*token.Token, error) { return nil, nil }

func (r *fakeTokenRepo) Update(t *token.Token) error { return nil }

func (r *fakeTokenRepo) UpdatePriceFields(tokenID uint, currentPrice, price24h, changePercent24h, volume24h, marketCap string, updatedAt time.Time) error {
	return nil
}

func (r *fakeTokenRepo) AppendPricePoint(point *token.PricePoint) error { return nil }

func (r *fakeTokenRepo) ListPriceHistory(tokenID uint, since time.Time) ([]*token.PricePoint, error) {
	return nil, nil
}

// fakeOperatorSvc accepts one fixed password/secret pair
type fakeOperatorSvc struct {
	password  string
	secretKey string
}

func (s *fakeOperatorSvc) Login(req *operator.LoginRequest, ip string) (*operator.LoginResponse, error) {
	return nil, nil
}

func (s *fakeOperatorSvc) GetOperator(operatorID uint) (*operator.Operator, error) {
	return nil, nil
}

func (s *fakeOperatorSvc) CreateOperator(email, password string, role operator.Role) (*operator.Operator, error) {
	return nil, nil
}

func (s *fakeOperatorSvc) ChangePassword(operatorID uint, oldPassword, newPassword string) error {
	return nil
}

func (s *fakeOperatorSvc) Enable2FA(operatorID uint) (string, error) { return "", nil }

func (s *fakeOperatorSvc) Verify2FA(operatorID uint, code string) bool { return false }

func (s *fakeOperatorSvc) VerifyPassword(operatorID uint, password string) bool {
	return password == s.password
}

func (s *fakeOperatorSvc) VerifySecretKey(secretKey string) bool {
	return secretKey == s.secretKey
}

func (s *fakeOperatorSvc) EnsureBootstrapOperator(email, password string) error { return nil }

type fakeNotifier struct {
	events []notification.EventType
}

func (n *fakeNotifier) Notify(event notification.EventType, payload map[string]interface{}) error {
	n.events = append(n.events, event)
	return nil
}

func setupWithdrawalService(available string) (Service, *fakeWithdrawalRepo, *fakeHoldLedger, *fakeNotifier) {
	repo := newFakeWithdrawalRepo()
	ledgerRepo := newFakeHoldLedger(available)
	tokenRepo := &fakeTokenRepo{tokens: map[uint]*token.Token{
		3: {ID: 3, Symbol: "ETH", Name: "Ethereum", CurrentPrice: "2000"},
	}}
	operatorSvc := &fakeOperatorSvc{password: "op-password", secretKey: "op-secret"}
	notifier := &fakeNotifier{}
	svc := NewService(repo, ledgerRepo, tokenRepo, operatorSvc, notifier)
	return svc, repo, ledgerRepo, notifier
}

func createPendingWithdrawal(t *testing.T, svc Service) *Withdrawal {
	t.Helper()
	w, err := svc.CreateWithdrawal(&CreateWithdrawalRequest{
		UserID:  7,
		TokenID: 3,
		Address: "0xrecipient",
		Amount:  "100",
		Fee:     "1",
		Network: "mainnet",
	})
	require.NoError(t, err)
	return w
}

func TestCreateWithdrawal_HoldsAmountPlusFee(t *testing.T) {
	svc, _, ledgerRepo, _ := setupWithdrawalService("150")

	w := createPendingWithdrawal(t, svc)

	assert.Equal(t, WithdrawalStatusPending, w.Status)
	assert.NotEmpty(t, w.HoldUUID)
	assert.Equal(t, "ETH", w.TokenSymbol)
	assert.Equal(t, "200000", w.AmountUSD)

	hold := ledgerRepo.holds[w.HoldUUID]
	require.NotNil(t, hold)
	assert.Equal(t, "101", hold.Amount)
	assert.Equal(t, ledger.HoldStatusHeld, hold.Status)
	assert.Equal(t, "49", ledgerRepo.available.String())
	assert.Equal(t, "101", ledgerRepo.locked.String())
}

func TestCreateWithdrawal_InsufficientBalance(t *testing.T) {
	svc, repo, ledgerRepo, _ := setupWithdrawalService("100")

	_, err := svc.CreateWithdrawal(&CreateWithdrawalRequest{
		UserID:  7,
		TokenID: 3,
		Address: "0xrecipient",
		Amount:  "100",
		Fee:     "1",
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, repo.withdrawals)
	assert.Equal(t, "100", ledgerRepo.available.String())
}

func TestProcess_AuthorizationFailureLeavesStateUntouched(t *testing.T) {
	svc, repo, ledgerRepo, notifier := setupWithdrawalService("150")
	w := createPendingWithdrawal(t, svc)

	cases := []struct {
		name     string
		password string
		secret   string
	}{
		{"wrong password", "bad", "op-secret"},
		{"wrong secret", "op-password", "bad"},
		{"both wrong", "bad", "bad"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Process(&ProcessRequest{
				WithdrawalID: w.ID,
				OperatorID:   1,
				Password:     tc.password,
				SecretKey:    tc.secret,
				TargetStatus: WithdrawalStatusCompleted,
			})
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Message)

			// nothing moved
			stored, _ := repo.GetByID(w.ID)
			assert.Equal(t, WithdrawalStatusPending, stored.Status)
			assert.Equal(t, ledger.HoldStatusHeld, ledgerRepo.holds[w.HoldUUID].Status)
			assert.Empty(t, notifier.events)
		})
	}
}

func TestProcess_CompletedFinalizesHold(t *testing.T) {
	svc, repo, ledgerRepo, notifier := setupWithdrawalService("150")
	w := createPendingWithdrawal(t, svc)

	result, err := svc.Process(&ProcessRequest{
		WithdrawalID: w.ID,
		OperatorID:   1,
		Password:     "op-password",
		SecretKey:    "op-secret",
		TargetStatus: WithdrawalStatusCompleted,
		TxHash:       "0xbroadcast",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, WithdrawalStatusCompleted, result.Withdrawal.Status)
	assert.Equal(t, "0xbroadcast", result.Withdrawal.TxHash)
	assert.Equal(t, uint(1), result.Withdrawal.ProcessedBy)

	// hold finalized once, locked funds burned, available untouched
	assert.Equal(t, ledger.HoldStatusFinalized, ledgerRepo.holds[w.HoldUUID].Status)
	assert.Equal(t, "49", ledgerRepo.available.String())
	assert.Equal(t, "0", ledgerRepo.locked.String())
	assert.Equal(t, []string{"withdrawal:" + w.UUID}, ledgerRepo.finalized)
	assert.Equal(t, []notification.EventType{notification.EventWithdrawalProcessed}, notifier.events)

	stored, _ := repo.GetByID(w.ID)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestProcess_FailedReleasesHold(t *testing.T) {
	svc, _, ledgerRepo, _ := setupWithdrawalService("150")
	w := createPendingWithdrawal(t, svc)

	result, err := svc.Process(&ProcessRequest{
		WithdrawalID: w.ID,
		OperatorID:   1,
		Password:     "op-password",
		SecretKey:    "op-secret",
		TargetStatus: WithdrawalStatusFailed,
		Reason:       "broadcast rejected",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, WithdrawalStatusFailed, result.Withdrawal.Status)
	assert.Equal(t, "broadcast rejected", result.Withdrawal.ProcessingReason)

	// funds back to available, nothing finalized
	assert.Equal(t, ledger.HoldStatusReleased, ledgerRepo.holds[w.HoldUUID].Status)
	assert.Equal(t, "150", ledgerRepo.available.String())
	assert.Equal(t, "0", ledgerRepo.locked.String())
	assert.Empty(t, ledgerRepo.finalized)
}

func TestProcess_CancelledReleasesHold(t *testing.T) {
	svc, _, ledgerRepo, _ := setupWithdrawalService("150")
	w := createPendingWithdrawal(t, svc)

	result, err := svc.Process(&ProcessRequest{
		WithdrawalID: w.ID,
		OperatorID:   1,
		Password:     "op-password",
		SecretKey:    "op-secret",
		TargetStatus: WithdrawalStatusCancelled,
		Reason:       "user request",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, WithdrawalStatusCancelled, result.Withdrawal.Status)
	assert.Equal(t, "150", ledgerRepo.available.String())
}

func TestProcess_SingleWinner(t *testing.T) {
	svc, _, ledgerRepo, _ := setupWithdrawalService("150")
	w := createPendingWithdrawal(t, svc)

	_, err := svc.Process(&ProcessRequest{
		WithdrawalID: w.ID,
		OperatorID:   1,
		Password:     "op-password",
		SecretKey:    "op-secret",
		TargetStatus: WithdrawalStatusCompleted,
	})
	require.NoError(t, err)

	// second attempt loses regardless of target status
	_, err = svc.Process(&ProcessRequest{
		WithdrawalID: w.ID,
		OperatorID:   2,
		Password:     "op-password",
		SecretKey:    "op-secret",
		TargetStatus: WithdrawalStatusCancelled,
	})
	assert.ErrorIs(t, err, ErrWithdrawalNotPending)

	// hold spent exactly once
	assert.Len(t, ledgerRepo.finalized, 1)
	assert.Equal(t, "49", ledgerRepo.available.String())
}

func TestProcess_InvalidTargetStatus(t *testing.T) {
	svc, _, _, _ := setupWithdrawalService("150")
	w := createPendingWithdrawal(t, svc)

	for _, status := range []WithdrawalStatus{WithdrawalStatusPending, WithdrawalStatusProcessing} {
		_, err := svc.Process(&ProcessRequest{
			WithdrawalID: w.ID,
			OperatorID:   1,
			Password:     "op-password",
			SecretKey:    "op-secret",
			TargetStatus: status,
		})
		assert.ErrorIs(t, err, ErrInvalidTargetStatus)
	}
}

func TestProcess_NotFound(t *testing.T) {
	svc, _, _, _ := setupWithdrawalService("150")

	_, err := svc.Process(&ProcessRequest{
		WithdrawalID: 42,
		OperatorID:   1,
		Password:     "op-password",
		SecretKey:    "op-secret",
		TargetStatus: WithdrawalStatusCompleted,
	})
	assert.ErrorIs(t, err, ErrWithdrawalNotFound)
}
