package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/meridian-core/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	accounts map[string]*Account
	nextSeq  int64

	createError error
	getError    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{accounts: make(map[string]*Account), nextSeq: 100000}
}

func (m *mockRepository) Get(ctx context.Context, number string) (*Account, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	account, ok := m.accounts[number]
	if !ok {
		return nil, shared.ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (m *mockRepository) List(ctx context.Context, holderID string) ([]Account, error) {
	var result []Account
	for _, account := range m.accounts {
		if holderID != "" && account.HolderID != holderID {
			continue
		}
		result = append(result, *account)
	}
	return result, nil
}

func (m *mockRepository) Create(ctx context.Context, account *Account) error {
	if m.createError != nil {
		return m.createError
	}
	if _, ok := m.accounts[account.Number]; ok {
		return shared.ErrDuplicateAccount
	}
	clone := *account
	m.accounts[account.Number] = &clone
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, number string, status Status) error {
	account, ok := m.accounts[number]
	if !ok {
		return shared.ErrAccountNotFound
	}
	account.Status = status
	return nil
}

func (m *mockRepository) NextNumber(ctx context.Context) (string, error) {
	seq := m.nextSeq
	m.nextSeq++
	return fmt.Sprintf("GTB%08d", seq), nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, nil, logger), repo
}

// ============================================================================
// OPEN
// ============================================================================

func TestOpenAccount(t *testing.T) {
	svc, _ := newTestService()

	account, err := svc.Open(context.Background(), OpenAccountInput{
		HolderID:       "holder-1",
		Type:           TypeChecking,
		Currency:       "USD",
		OpeningBalance: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	assert.Equal(t, "GTB00100000", account.Number)
	assert.Equal(t, StatusActive, account.Status)
	assert.Equal(t, TypeChecking, account.Type)
	assert.Equal(t, "USD", account.Currency)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(500)))
	assert.True(t, account.AvailableBalance.Equal(account.Balance))
}

func TestOpenAccountDefaults(t *testing.T) {
	svc, _ := newTestService()

	account, err := svc.Open(context.Background(), OpenAccountInput{HolderID: "holder-1"})
	require.NoError(t, err)

	assert.Equal(t, TypeSavings, account.Type)
	assert.Equal(t, "GTQ", account.Currency)
	assert.True(t, account.Balance.IsZero())
}

func TestOpenAccountGeneratesSequentialNumbers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Open(ctx, OpenAccountInput{HolderID: "holder-1"})
	require.NoError(t, err)
	second, err := svc.Open(ctx, OpenAccountInput{HolderID: "holder-1"})
	require.NoError(t, err)

	assert.Equal(t, "GTB00100000", first.Number)
	assert.Equal(t, "GTB00100001", second.Number)
}

func TestOpenAccountRequiresHolder(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Open(context.Background(), OpenAccountInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestOpenAccountRejectsNegativeBalance(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Open(context.Background(), OpenAccountInput{
		HolderID:       "holder-1",
		OpeningBalance: decimal.NewFromInt(-5),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestOpenAccountDuplicateNumber(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Open(ctx, OpenAccountInput{HolderID: "holder-1", Number: "GTB00000001"})
	require.NoError(t, err)

	_, err = svc.Open(ctx, OpenAccountInput{HolderID: "holder-2", Number: "GTB00000001"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDuplicateAccount))
}

// ============================================================================
// GET / LIST
// ============================================================================

func TestGetAccountNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), "GTB09999999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrAccountNotFound))
}

func TestListAccountsByHolder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, holder := range []string{"holder-a", "holder-a", "holder-b"} {
		_, err := svc.Open(ctx, OpenAccountInput{HolderID: holder})
		require.NoError(t, err)
	}

	accounts, err := svc.List(ctx, "holder-a")
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// ============================================================================
// CANCEL
// ============================================================================

func TestCancelAccount(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	account, err := svc.Open(ctx, OpenAccountInput{HolderID: "holder-1"})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, account.Number))
	assert.Equal(t, StatusCancelled, repo.accounts[account.Number].Status)
}

func TestCancelAccountWithBalance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	account, err := svc.Open(ctx, OpenAccountInput{
		HolderID:       "holder-1",
		OpeningBalance: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	err = svc.Cancel(ctx, account.Number)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrAccountNotEmpty))
}

func TestCancelAccountTwice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	account, err := svc.Open(ctx, OpenAccountInput{HolderID: "holder-1"})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, account.Number))

	err = svc.Cancel(ctx, account.Number)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrAccountNotActive))
}

// ============================================================================
// MODEL
// ============================================================================

func TestDailySpentResetsAcrossDays(t *testing.T) {
	today := mustTime(t, "2026-03-15T14:00:00Z")
	account := &Account{
		DailyTransferred: decimal.NewFromInt(6000),
		LastTransferDay:  &today,
	}

	assert.True(t, account.DailySpent(mustTime(t, "2026-03-15T23:59:59Z")).Equal(decimal.NewFromInt(6000)))
	assert.True(t, account.DailySpent(mustTime(t, "2026-03-16T00:00:01Z")).IsZero())
}

func TestDailySpentWithoutHistory(t *testing.T) {
	account := &Account{DailyTransferred: decimal.NewFromInt(6000)}
	assert.True(t, account.DailySpent(mustTime(t, "2026-03-15T14:00:00Z")).IsZero())
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}
