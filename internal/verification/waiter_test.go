package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rolewarden/rolewarden/internal/domain"
)

func TestAwait_ReturnsRecordOnceAvailable(t *testing.T) {
	repo := newMemoryAuthStore()
	svc, _ := newTestService(t, Config{Repo: repo, WaitTimeout: time.Second})

	go func() {
		time.Sleep(25 * time.Millisecond)
		_ = repo.Upsert(context.Background(), &domain.PendingAuthorization{
			CorrelationID: "corr-wait",
			Status:        domain.AuthStatusCompleted,
		})
	}()

	rec, err := svc.Await(context.Background(), "corr-wait")

	require.NoError(t, err)
	assert.Equal(t, "corr-wait", rec.CorrelationID)
	assert.Equal(t, domain.AuthStatusConsumed, rec.Status)
}

func TestAwait_TimesOut(t *testing.T) {
	repo := newMemoryAuthStore()
	svc, _ := newTestService(t, Config{Repo: repo, WaitTimeout: 30 * time.Millisecond})

	_, err := svc.Await(context.Background(), "corr-never")

	assert.ErrorIs(t, err, domain.ErrVerificationTimeout)
}

func TestAwait_RespectsContextCancellation(t *testing.T) {
	repo := newMemoryAuthStore()
	svc, _ := newTestService(t, Config{Repo: repo, WaitTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Await(ctx, "corr-cancelled")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Await did not return after cancellation")
	}
}

func TestAwait_IgnoresPendingRecords(t *testing.T) {
	repo := newMemoryAuthStore()
	svc, _ := newTestService(t, Config{Repo: repo, WaitTimeout: 40 * time.Millisecond})

	require.NoError(t, repo.Upsert(context.Background(), &domain.PendingAuthorization{
		CorrelationID: "corr-pending",
		Status:        domain.AuthStatusPending,
	}))

	_, err := svc.Await(context.Background(), "corr-pending")

	assert.ErrorIs(t, err, domain.ErrVerificationTimeout)
}

// Two waiters racing on the same correlation id: exactly one gets the record,
// the other times out.
func TestAwait_SingleConsumption(t *testing.T) {
	repo := newMemoryAuthStore()
	svc, _ := newTestService(t, Config{Repo: repo, WaitTimeout: 150 * time.Millisecond})

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = repo.Upsert(context.Background(), &domain.PendingAuthorization{
			CorrelationID: "corr-race",
			Status:        domain.AuthStatusCompleted,
		})
	}()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Await(context.Background(), "corr-race")
		}(i)
	}
	wg.Wait()

	var won, timedOut int
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrVerificationTimeout):
			timedOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, timedOut)
}

func TestAwait_PropagatesStoreErrors(t *testing.T) {
	repo := new(mockPendingAuthRepo)
	svc, _ := newTestService(t, Config{Repo: repo, WaitTimeout: time.Second})

	storeErr := errors.New("connection refused")
	repo.On("Consume", mock.Anything, "corr-err").Return(nil, storeErr)

	_, err := svc.Await(context.Background(), "corr-err")

	assert.ErrorIs(t, err, storeErr)
}
