package engine

import "errors"

var (
	// ErrInvalidInput means the download request cannot be normalized
	// into something runnable.
	ErrInvalidInput = errors.New("invalid download request")
	// ErrToolUnavailable means the engine's external binary is neither
	// managed nor on PATH.
	ErrToolUnavailable = errors.New("required tool is not installed")
	// ErrSpawn wraps process start failures.
	ErrSpawn = errors.New("failed to start download process")
	// ErrBusy is returned by a supervisor that already runs a process.
	ErrBusy = errors.New("a download is already running")
	// ErrCancelled is returned when a stop request lands before the
	// process ever started.
	ErrCancelled = errors.New("download cancelled")
)
