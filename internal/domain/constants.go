package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultProviderTimeout bounds a single extraction call
	DefaultProviderTimeout = 120 * time.Second
	// DefaultHTTPClientTimeout is the timeout for HTTP client requests
	DefaultHTTPClientTimeout = 180 * time.Second
	// DefaultSessionTTL is how long an idle server session is kept
	DefaultSessionTTL = 30 * time.Minute
	// DefaultModelTestTimeout bounds `models test`
	DefaultModelTestTimeout = 30 * time.Second
)

// Limit constants
const (
	// DefaultMaxDocumentBytes caps uploaded documents
	DefaultMaxDocumentBytes int64 = 50 << 20
	// DefaultMaxSessions caps concurrently held server sessions
	DefaultMaxSessions = 1000
	// DefaultMaxConcurrentExtractions caps in-flight provider calls on the server
	DefaultMaxConcurrentExtractions = 4
	// DefaultRateLimitPerMinute is the per-session extraction rate on the server
	DefaultRateLimitPerMinute = 6
	// DefaultRateLimitBurst is the per-session extraction burst on the server
	DefaultRateLimitBurst = 2
	// DefaultMaxTokens is the default maximum number of tokens for HTTP providers
	DefaultMaxTokens = 4096
	// SimilarFieldDistance is the edit distance under which two field names are reported as similar
	SimilarFieldDistance = 2
)

// History constants
const (
	// DefaultHistoryLimit is the default number of archived records to display
	DefaultHistoryLimit = 20
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
)

// Server defaults
const (
	DefaultServerHost = "127.0.0.1"
	DefaultServerPort = 8080
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
