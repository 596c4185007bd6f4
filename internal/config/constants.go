package config

import "time"

// Verification flow defaults. The wait timeout bounds how long a /verify
// interaction polls for callback data; the TTL bounds how long an unconsumed
// authorization survives in the store.
const (
	DefaultWaitTimeout  = 60 * time.Second
	DefaultPollInterval = 3 * time.Second
	DefaultPendingTTL   = 10 * time.Minute
)
