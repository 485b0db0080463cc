package syncer

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"distributorsearch_api/internal/core/models"
)

func TestScheduler(t *testing.T) {
	t.Run("SubmitReturnsJobImmediately", func(t *testing.T) {
		release := make(chan struct{})
		feed := &feedConnector{
			products: []models.NormalizedProduct{feedProduct("M-1", 100, 10)},
			block:    release,
		}
		svc, _, _, _ := newTestService(feed)
		scheduler := NewScheduler(svc, time.Hour, io.Discard)

		job := scheduler.Submit(context.Background(), testSupplier())
		require.NotEmpty(t, job.ID)
		require.Equal(t, 1, job.SupplierID)

		status := scheduler.JobStatus(job.ID)
		require.NotNil(t, status)
		require.Contains(t, []string{JobQueued, JobRunning}, status.Status)
		require.Nil(t, status.CompletedAt)

		close(release)
		require.Eventually(t, func() bool {
			return scheduler.JobStatus(job.ID).Status == JobSucceeded
		}, 2*time.Second, 10*time.Millisecond)

		final := scheduler.JobStatus(job.ID)
		require.Equal(t, 1, final.ProductsSynced)
		require.NotNil(t, final.CompletedAt)
		require.Empty(t, final.Error)
	})

	t.Run("FailedSyncMarksJobFailed", func(t *testing.T) {
		feed := &feedConnector{err: errors.New("feed unreachable")}
		svc, _, _, _ := newTestService(feed)
		scheduler := NewScheduler(svc, time.Hour, io.Discard)

		job := scheduler.Submit(context.Background(), testSupplier())
		require.Eventually(t, func() bool {
			return scheduler.JobStatus(job.ID).Status == JobFailed
		}, 2*time.Second, 10*time.Millisecond)

		final := scheduler.JobStatus(job.ID)
		require.Contains(t, final.Error, "feed unreachable")
	})

	t.Run("UnknownJobIDIsNil", func(t *testing.T) {
		feed := &feedConnector{}
		svc, _, _, _ := newTestService(feed)
		scheduler := NewScheduler(svc, time.Hour, io.Discard)
		require.Nil(t, scheduler.JobStatus("no-such-job"))
	})

	t.Run("PeriodicLoopRunsSyncAll", func(t *testing.T) {
		feed := &feedConnector{products: []models.NormalizedProduct{feedProduct("M-1", 100, 10)}}
		svc, _, _, logs := newTestService(feed)
		scheduler := NewScheduler(svc, 20*time.Millisecond, io.Discard)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go scheduler.Run(ctx)

		require.Eventually(t, func() bool {
			logs.mu.Lock()
			defer logs.mu.Unlock()
			return len(logs.logs) >= 1
		}, 2*time.Second, 10*time.Millisecond)
	})
}
