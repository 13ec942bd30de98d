package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	active  []ActiveAccount
	summary Summary

	activeCalls  int
	summaryCalls int
	lastOrder    string
	lastLimit    int
	lastSince    time.Time
}

func (m *mockRepository) MostActiveAccounts(ctx context.Context, order string, limit int) ([]ActiveAccount, error) {
	m.activeCalls++
	m.lastOrder = order
	m.lastLimit = limit
	return m.active, nil
}

func (m *mockRepository) Summary(ctx context.Context, since time.Time) (Summary, error) {
	m.summaryCalls++
	m.lastSince = since
	return m.summary, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestReporting(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &mockRepository{
		active: []ActiveAccount{
			{AccountNumber: "GTB00000001", TransactionCount: 7, TotalAmount: decimal.RequireFromString("910.50")},
			{AccountNumber: "GTB00000002", TransactionCount: 3, TotalAmount: decimal.NewFromInt(120)},
		},
		summary: Summary{
			TotalAccounts:     4,
			ActiveAccounts:    3,
			TransactionsToday: 11,
			DepositedToday:    decimal.RequireFromString("1250.75"),
			TransferredToday:  decimal.RequireFromString("430.25"),
		},
	}
	clock := fixedClock{now: time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)}
	return NewService(repo, NewCache(client, time.Minute), clock), repo
}

// ============================================================================
// TESTS
// ============================================================================

func TestMostActiveAccountsCached(t *testing.T) {
	svc, repo := newTestReporting(t)
	ctx := context.Background()

	first, err := svc.MostActiveAccounts(ctx, "desc", 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "GTB00000001", first[0].AccountNumber)
	assert.Equal(t, int64(7), first[0].TransactionCount)
	assert.True(t, first[0].TotalAmount.Equal(decimal.RequireFromString("910.50")))

	// The second call is served from cache.
	second, err := svc.MostActiveAccounts(ctx, "desc", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.activeCalls)
}

func TestMostActiveAccountsNormalisesOrder(t *testing.T) {
	svc, repo := newTestReporting(t)

	_, err := svc.MostActiveAccounts(context.Background(), "sideways", 5)
	require.NoError(t, err)
	assert.Equal(t, "desc", repo.lastOrder)
	assert.Equal(t, 5, repo.lastLimit)
}

func TestMostActiveAccountsDistinctKeys(t *testing.T) {
	svc, repo := newTestReporting(t)
	ctx := context.Background()

	_, err := svc.MostActiveAccounts(ctx, "desc", 10)
	require.NoError(t, err)
	_, err = svc.MostActiveAccounts(ctx, "asc", 10)
	require.NoError(t, err)
	_, err = svc.MostActiveAccounts(ctx, "desc", 5)
	require.NoError(t, err)

	assert.Equal(t, 3, repo.activeCalls)
}

func TestSummaryUsesMidnightBoundary(t *testing.T) {
	svc, repo := newTestReporting(t)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.TotalAccounts)
	assert.True(t, summary.DepositedToday.Equal(decimal.RequireFromString("1250.75")))
	assert.True(t, summary.TransferredToday.Equal(decimal.RequireFromString("430.25")))
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), repo.lastSince)
}

func TestInvalidateBustsCache(t *testing.T) {
	svc, repo := newTestReporting(t)
	ctx := context.Background()

	_, err := svc.MostActiveAccounts(ctx, "desc", 10)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))

	_, err = svc.MostActiveAccounts(ctx, "desc", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.activeCalls)
}

func TestCacheWithoutRedisFallsThrough(t *testing.T) {
	repo := &mockRepository{summary: Summary{TotalAccounts: 1}}
	svc := NewService(repo, NewCache(nil, time.Minute), fixedClock{now: time.Unix(0, 0).UTC()})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		summary, err := svc.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.TotalAccounts)
	}
	assert.Equal(t, 2, repo.summaryCalls)
}
