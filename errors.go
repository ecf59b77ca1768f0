package framestats

import "github.com/hyp3rd/framestats/internal/sentinel"

// Errors callers of this package match with errors.Is.
var (
	ErrInsufficientData        = sentinel.ErrInsufficientData
	ErrInvalidState            = sentinel.ErrInvalidState
	ErrStageNotFound           = sentinel.ErrStageNotFound
	ErrResultNotFound          = sentinel.ErrResultNotFound
	ErrInvalidMetric           = sentinel.ErrInvalidMetric
	ErrInvalidBackendType      = sentinel.ErrInvalidBackendType
	ErrSerializerNotFound      = sentinel.ErrSerializerNotFound
	ErrMgmtHTTPShutdownTimeout = sentinel.ErrMgmtHTTPShutdownTimeout
)
