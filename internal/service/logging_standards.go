package service

// Standard Field Names
// Use these exact field names for consistency across all logging calls
const (
	// Core identifiers
	LogFieldQueueID   = "queue_id"
	LogFieldCategory  = "category"
	LogFieldRequestID = "request_id"
	LogFieldTraceID   = "trace_id"

	// Service and operation fields
	LogFieldService   = "service"
	LogFieldOperation = "operation"
	LogFieldComponent = "component"
	LogFieldMethod    = "method"

	// Queue and sync fields
	LogFieldEvent   = "event"
	LogFieldOutcome = "outcome"
	LogFieldPending = "pending"

	// Performance and metrics
	LogFieldDuration = "duration_ms"
	LogFieldCount    = "count"
	LogFieldSize     = "size_bytes"

	// Network and external services
	LogFieldURL        = "url"
	LogFieldEndpoint   = "endpoint"
	LogFieldStatusCode = "status_code"
	LogFieldRemoteIP   = "remote_ip"
	LogFieldUserAgent  = "user_agent"

	// Error and debugging
	LogFieldErrorCode  = "error_code"
	LogFieldErrorType  = "error_type"
	LogFieldRetryCount = "retry_count"
	LogFieldAttempt    = "attempt"
)

// Log Level Usage Guidelines
//
// DEBUG: Detailed information for diagnosing problems. Only use in development or verbose mode.
//   - Function entry/exit
//   - Flush loop iterations with no pending work
//   - Raw request/response data (sanitized)
//
// INFO: General information about application flow and key events.
//   - Application startup/shutdown
//   - Connectivity transitions
//   - Records queued, delivered, edited, removed
//   - Configuration loaded
//
// WARN: Something unexpected happened, but the application can continue.
//   - Retryable errors
//   - Fallback to the queue after a failed remote delivery
//   - Configuration issues (using defaults)
//
// ERROR: Error events that might still allow the application to continue.
//   - Failed operations
//   - Remote service errors
//   - Data validation failures
//
// FATAL: Very severe error events that will presumably lead the application to abort.
//   - Configuration required for startup is missing
//   - Database connection failed and cannot be recovered

// Standard Log Message Patterns
//
// Starting operations: "Starting [operation]"
// Completed operations: "Completed [operation]" or "[Operation] completed successfully"
// Failed operations: "Failed to [operation]"
// Retrying operations: "Retrying [operation] (attempt X/Y)"
// Skipping operations: "Skipping [operation]: [reason]"
