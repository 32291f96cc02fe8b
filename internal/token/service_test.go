package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenRepo struct {
	tokens map[uint]*Token
	nextID uint
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[uint]*Token), nextID: 1}
}

func (r *fakeTokenRepo) Create(t *Token) error {
	t.ID = r.nextID
	r.nextID++
	copied := *t
	r.tokens[t.ID] = &copied
	return nil
}

func (r *fakeTokenRepo) GetByID(id uint) (*Token, error) {
	t, ok := r.tokens[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTokenRepo) GetBySymbol(symbol, network string) (*Token, error) {
	for _, t := range r.tokens {
		if t.Symbol == symbol && t.Network == network {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) List(blockchain string, activeOnly bool) ([]*Token, error) {
	var out []*Token
	for _, t := range r.tokens {
		if blockchain != "" && t.Blockchain != blockchain {
			continue
		}
		if activeOnly && !t.IsActive {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeTokenRepo) ListActiveByStaleness() ([]*Token, error) { return nil, nil }

func (r *fakeTokenRepo) Update(t *Token) error {
	copied := *t
	r.tokens[t.ID] = &copied
	return nil
}

func (r *fakeTokenRepo) UpdatePriceFields(tokenID uint, currentPrice, price24h, changePercent24h, volume24h, marketCap string, updatedAt time.Time) error {
	return nil
}

func (r *fakeTokenRepo) AppendPricePoint(point *PricePoint) error { return nil }

func (r *fakeTokenRepo) ListPriceHistory(tokenID uint, since time.Time) ([]*PricePoint, error) {
	return nil, nil
}

func TestCreateToken(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewService(repo)

	tok := &Token{Symbol: "USDT", Name: "Tether", Blockchain: "tron", Network: "mainnet", IsActive: true}
	require.NoError(t, svc.CreateToken(tok))
	assert.Equal(t, "USDT", tok.BaseSymbol) // defaults to the symbol

	// same symbol+network is rejected
	err := svc.CreateToken(&Token{Symbol: "USDT", Name: "Tether", Blockchain: "tron", Network: "mainnet"})
	assert.ErrorIs(t, err, ErrTokenExists)

	// same symbol on another network is a separate listing
	other := &Token{Symbol: "USDT", BaseSymbol: "USDT", Name: "Tether", Blockchain: "ethereum", Network: "erc20"}
	require.NoError(t, svc.CreateToken(other))
}

func TestActivateDeactivate(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewService(repo)

	tok := &Token{Symbol: "BTC", Name: "Bitcoin", Blockchain: "bitcoin", Network: "mainnet", IsActive: true}
	require.NoError(t, svc.CreateToken(tok))

	require.NoError(t, svc.DeactivateToken(tok.ID))
	got, err := svc.GetToken(tok.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, svc.ActivateToken(tok.ID))
	got, _ = svc.GetToken(tok.ID)
	assert.True(t, got.IsActive)

	assert.ErrorIs(t, svc.ActivateToken(999), ErrTokenNotFound)
}

func TestGetToken_NotFound(t *testing.T) {
	svc := NewService(newFakeTokenRepo())
	_, err := svc.GetToken(1)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
