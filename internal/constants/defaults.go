package constants

// Default connectivity and sync configuration values
const (
	DefaultConnectivityCheckSec  = 15
	DefaultConnectivityProbeSec  = 5
	DefaultRemoteTimeoutSec      = 30
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultDatabaseRetryAttempts = 3
	DefaultServerPort            = 8083
)

// Question constraints enforced at the submission boundary
const (
	MaxQuestionLength = 2000
	MinQuestionLength = 1
	MaxCategoryLength = 100
)

// Default timeout values
const (
	DefaultHTTPTimeoutSec       = 30
	DefaultGracefulShutdownSec  = 30
	DefaultServerReadTimeoutSec = 15
	DefaultServerWriteTimeout   = 15
	DefaultServerIdleTimeoutSec = 60
)

// Encryption parameters for at-rest question text
const (
	EncryptionSalt = "fatwabox-queue-salt-v1"
)

// Circuit breaker thresholds for remote submissions
const (
	DefaultBreakerMaxFailures = 5
	DefaultBreakerCooldownSec = 30
)

// ServerErrorChannelSize is the buffer size for the server error channel
const ServerErrorChannelSize = 1
