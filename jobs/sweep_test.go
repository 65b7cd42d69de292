package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSweeper struct {
	expired int64
	err     error
	calls   int
}

func (s *stubSweeper) ExpireStale(context.Context) (int64, error) {
	s.calls++
	return s.expired, s.err
}

type stubRecorder struct {
	observed []int64
}

func (s *stubRecorder) ObserveSweep(expired int64) {
	s.observed = append(s.observed, expired)
}

func TestSubscriptionSweepJobHandle(t *testing.T) {
	sweeper := &stubSweeper{expired: 4}
	recorder := &stubRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	job := NewSubscriptionSweepJob(sweeper, logger, recorder)

	err := job.Handle(context.Background(), NewSubscriptionSweepTask())
	require.NoError(t, err)
	assert.Equal(t, 1, sweeper.calls)
	assert.Equal(t, []int64{4}, recorder.observed)
}

func TestSubscriptionSweepJobPropagatesError(t *testing.T) {
	boom := errors.New("db down")
	sweeper := &stubSweeper{err: boom}
	job := NewSubscriptionSweepJob(sweeper, nil, nil)

	err := job.Handle(context.Background(), NewSubscriptionSweepTask())
	require.ErrorIs(t, err, boom)
}
