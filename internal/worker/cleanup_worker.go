package worker

import (
	"context"
	"time"

	"github.com/rolewarden/rolewarden/internal/logger"
	"github.com/rolewarden/rolewarden/internal/metrics"
	"github.com/rolewarden/rolewarden/internal/repository"
)

// CleanupJob removes pending authorization records that were never consumed.
// Abandoned OAuth flows leave rows behind; this keeps the table bounded and
// makes sure stale access tokens do not outlive their usefulness.
type CleanupJob struct {
	repo repository.PendingAuth
	ttl  time.Duration
}

// NewCleanupJob creates a cleanup job for records older than ttl
func NewCleanupJob(repo repository.PendingAuth, ttl time.Duration) *CleanupJob {
	return &CleanupJob{repo: repo, ttl: ttl}
}

func (j *CleanupJob) Process(ctx context.Context) error {
	log := logger.FromContext(ctx)

	removed, err := j.repo.DeleteExpired(ctx, j.ttl)
	if err != nil {
		log.Error(LogMsgCleanupFailed, "error", err)
		return err
	}

	if removed > 0 {
		metrics.PendingAuthsSwept.Add(float64(removed))
		log.Info(LogMsgCleanupCompleted, "removed", removed, "ttl", j.ttl)
	}
	return nil
}
