package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Verification flow metric names
const (
	MetricNameVerificationsStarted   = "verifications_started_total"
	MetricNameVerificationsCompleted = "verifications_completed_total"
	MetricNameCallbacksTotal         = "oauth_callbacks_total"
	MetricNameWaitDuration           = "authorization_wait_seconds"
	MetricNameRoleChanges            = "tier_role_changes_total"
	MetricNamePendingAuthsSwept      = "pending_auths_swept_total"
	MetricNameCommandsHandled        = "discord_commands_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Verification metric help text
const (
	HelpTextVerificationsStarted   = "Total verification flows initiated"
	HelpTextVerificationsCompleted = "Total verification flows finished, by outcome"
	HelpTextCallbacksTotal         = "Total OAuth callback requests, by terminal state"
	HelpTextWaitDuration           = "Time spent waiting for authorization data"
	HelpTextRoleChanges            = "Total tier role mutations, by kind"
	HelpTextPendingAuthsSwept      = "Total expired pending authorizations removed"
	HelpTextCommandsHandled        = "Total Discord slash commands handled"
)

// ============================================================================
// Label Names
// ============================================================================

const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelOutcome = "outcome"
	LabelState   = "state"
	LabelKind    = "kind"
	LabelCommand = "command"
)

// HTTPLatencyBuckets cover a browser redirect plus two provider round trips.
var HTTPLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// WaitBuckets cover the human-driven authorization wait.
var WaitBuckets = []float64{1, 3, 5, 10, 15, 30, 45, 60, 90, 120}
