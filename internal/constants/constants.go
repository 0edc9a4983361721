package constants

import "time"

const (
	DefaultHTTPTimeout = 10 * time.Second
)

// Key scheme shared with earlier deployments of the relay; changing a prefix
// orphans every flag already persisted under it.
const (
	KeyPrefixCursor  = "github:lastEvent:"
	KeyPrefixFetched = "github:commit:"
	KeyPrefixSent    = "telegram:sent:"
)

const (
	// GitHub caps event pages at 100 entries.
	MaxEventsPerPage = 100

	// Commit detail messages list at most this many changed files.
	MaxFilesPerMessage = 10
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)
