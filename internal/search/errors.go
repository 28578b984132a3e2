package search

import "errors"

var (
	// ErrUnavailable is returned when no worker is running behind the coordinator.
	ErrUnavailable = errors.New("search unavailable")
	// ErrTimeout is returned when the worker does not answer within the configured timeout.
	ErrTimeout = errors.New("search timed out")
	// ErrClosed is returned by Search after Close.
	ErrClosed = errors.New("search coordinator closed")
	// ErrWorkerCrashed is reported when filtering panics inside the worker.
	ErrWorkerCrashed = errors.New("search worker crashed")
	// ErrBadRequest is reported for requests the worker does not understand.
	ErrBadRequest = errors.New("unsupported search request")
)
