package constants

import (
	"time"
)

// Upload tracking cadence
const (
	// UploadTickInterval - how often the simulated upload estimate advances (500ms)
	UploadTickInterval = 500 * time.Millisecond

	// UploadIncrement - percentage points added to the estimate on each tick
	// 20 per 500ms fills the bar in ~2.5 seconds.
	UploadIncrement = 20

	// UploadComplete - estimate value that ends the upload phase
	UploadComplete = 100
)

// Analysis polling
const (
	// StatusPollInterval - interval between job status requests (2 seconds)
	StatusPollInterval = 2 * time.Second

	// CompletionDelay - pause between the dashboard refresh and the completion callback
	CompletionDelay = 2 * time.Second

	// DefaultPollTimeout - upper bound on how long a job may stay in polling (10 minutes)
	// Zero in config disables the bound.
	DefaultPollTimeout = 10 * time.Minute

	// StatusRequestTimeout - per-request timeout for a single status poll
	StatusRequestTimeout = 30 * time.Second

	// DefaultMaxPollErrors - consecutive transient poll failures tolerated (0 = unlimited)
	DefaultMaxPollErrors = 0
)

// Analysis steps shown while polling
const (
	// DefaultAnalysisSteps - number of entries in the analysis step table
	DefaultAnalysisSteps = 4
)

// Session storage
const (
	// SessionUserKey - storage key holding the serialized current user
	SessionUserKey = "genefit_user"

	// SessionFileName - file used by the file-backed session store
	SessionFileName = "session.json"
)

// Dashboard cache
const (
	// DashboardCacheTTL - how long a refreshed dashboard snapshot is served from memory
	DashboardCacheTTL = 5 * time.Minute

	// DashboardCacheCleanup - purge interval for expired snapshots
	DashboardCacheCleanup = 10 * time.Minute
)

// Event bus buffer sizes
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size for event channels
	EventBusMaxBuffer = 4096
)

// API rate limiting
const (
	// DefaultRequestsPerSecond - steady request rate towards the GeneFit API
	DefaultRequestsPerSecond = 5.0

	// DefaultBurstCapacity - requests allowed in a burst before throttling
	DefaultBurstCapacity = 20.0
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPClientTimeout - overall timeout for one API call, upload body included (5 minutes)
	HTTPClientTimeout = 300 * time.Second
)

// Log rotation
const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 5
	LogMaxAgeDays = 30
)
