package constants

// Default polling configuration values
const (
	DefaultPollIntervalSec  = 5
	DefaultRetryBackoffMs   = 1000
	DefaultMaxBackoffMs     = 60000
	DefaultMaxAttempts      = 5
	DefaultServerPort       = 8084
	DefaultTokenLifetimeSec = 3600
)

// Default retention configuration values
const (
	DefaultRetentionCeiling   = 10000
	DefaultSweepIntervalHours = 72
)

// Default timeout values
const (
	DefaultHTTPTimeoutSec        = 30
	DefaultDatabaseRetryAttempts = 3
	DefaultGracefulShutdownSec   = 30
	DefaultTickTimeoutSec        = 120
	DefaultEventStreamRetrySec   = 5
	ServerErrorChannelSize       = 1
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
)
