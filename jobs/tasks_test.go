package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/meridian-core/internal/shared"
	"github.com/meridianbank/meridian-core/internal/txlog"
)

type stubTxlogRepo struct {
	cutoff  time.Time
	removed int64
	err     error
}

func (s *stubTxlogRepo) Get(ctx context.Context, id string) (*txlog.Transaction, error) {
	return nil, shared.ErrTransactionNotFound
}

func (s *stubTxlogRepo) Find(ctx context.Context, filter txlog.Filter, page shared.Pagination) ([]txlog.Transaction, int, error) {
	return nil, 0, nil
}

func (s *stubTxlogRepo) History(ctx context.Context, accountNumber string, limit int) ([]txlog.Transaction, error) {
	return nil, nil
}

func (s *stubTxlogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.removed, s.err
}

type frozenClock struct {
	now time.Time
}

func (c frozenClock) Now() time.Time { return c.now }

func TestRetentionSweepUsesRetentionCutoff(t *testing.T) {
	repo := &stubTxlogRepo{removed: 3}
	now := time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewRetentionSweepHandler(repo, 720*time.Hour, nil, frozenClock{now: now}, logger)
	require.NoError(t, handler(context.Background(), NewRetentionSweepTask()))

	assert.Equal(t, now.Add(-720*time.Hour), repo.cutoff)
}

func TestRetentionSweepPropagatesError(t *testing.T) {
	repo := &stubTxlogRepo{err: assert.AnError}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewRetentionSweepHandler(repo, time.Hour, nil, frozenClock{now: time.Now()}, logger)
	err := handler(context.Background(), NewRetentionSweepTask())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
