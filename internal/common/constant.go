package common

import "time"

// AuthorizationHeaderName carries the bearer token on inbound HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted Authorization scheme.
const BearerScheme = "Bearer"

// IngestSecretHeaderName carries the shared ingest secret on HTTP and gRPC
// ingest calls.
const IngestSecretHeaderName = "x-ingest-secret"

// StreamKeyBytes is the amount of random source entropy in a stream key.
const StreamKeyBytes = 32

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 8

// Column widths of the users table, in characters.
const (
	MaxUsernameLength = 50
	MaxEmailLength    = 100
	MaxNameLength     = 50
)

const (
	DefaultTokenValidity     = time.Hour
	DefaultStreamKeyValidity = 24 * time.Hour
)

// Ingest gRPC service and its full method names.
const (
	IngestServiceName     = "streamkeeper.ingest.StreamKeys"
	IngestAuthorizeMethod = "/" + IngestServiceName + "/Authorize"
	IngestPingMethod      = "/" + IngestServiceName + "/Ping"
)
