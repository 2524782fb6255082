package models

// ErrorKind classifies how an upstream fetch failed.
type ErrorKind string

const (
	// ErrorTransport covers network, timeout, and HTTP-level failures.
	ErrorTransport ErrorKind = "transport"
	// ErrorUpstream is a structured error payload returned by the upstream
	// in place of data.
	ErrorUpstream ErrorKind = "upstream"
	// ErrorMalformed means the upstream answered with a shape we do not
	// recognize.
	ErrorMalformed ErrorKind = "malformed"
)

// UpstreamError is a failed fetch outcome. It satisfies error so callers
// can log or wrap it, but fetch results carry it as data rather than as a
// return error: consumers degrade, they do not abort.
type UpstreamError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *UpstreamError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// WorkspaceResult is the outcome of a workspace fetch. Exactly one of
// Snapshot and Err is set.
type WorkspaceResult struct {
	Snapshot *Workspace
	Err      *UpstreamError
}

// AssetsResult is the outcome of an asset catalog fetch. Exactly one of
// Catalog and Err is set.
type AssetsResult struct {
	Catalog *AssetCatalog
	Err     *UpstreamError
}

// ScheduleResult is the outcome of a single-schedule fetch. Exactly one of
// Detail, NotFound, and Err describes the outcome: a populated detail, a
// definite "no such schedule" answer, or a failure.
type ScheduleResult struct {
	Detail   *ScheduleDetail
	NotFound bool
	Err      *UpstreamError
}
