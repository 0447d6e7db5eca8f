package constants

// Default server configuration values
const (
	DefaultServerPort            = 8000
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 60
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
)

// Default upstream call timeouts. Read-only status/list calls are
// short; the messages route performs two sequential calls; media
// bearing calls are given the longest budget.
const (
	DefaultReadTimeoutSec     = 10
	DefaultMessagesTimeoutSec = 15
	DefaultMediaTimeoutSec    = 30
)

// Default upstream and auth configuration values
const (
	DefaultUpstreamURL        = "https://pleasant-eagerness-production-6be8.up.railway.app"
	DefaultMessageLimit       = 50
	DefaultJWTExpirationHours = 24
	DefaultDatabasePath       = "acadgateway.db"
)

// ServerErrorChannelSize bounds the buffered server error channel.
const ServerErrorChannelSize = 1
