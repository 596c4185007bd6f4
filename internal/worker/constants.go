package worker

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// Log messages for the pending authorization cleanup worker
const (
	LogMsgCleanupCompleted = "Expired pending authorizations removed"
	LogMsgCleanupFailed    = "Pending authorization cleanup failed"
)
