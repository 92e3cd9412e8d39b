package engine

import "errors"

var (
	// ErrEngineNotFound is returned when no candidate executable could be
	// started. It wraps the individual spawn failures.
	ErrEngineNotFound = errors.New("engine not found")

	// ErrEngineSpawnFailed is returned when a single candidate could not be
	// started as a process.
	ErrEngineSpawnFailed = errors.New("engine spawn failed")

	// ErrEngineHandshakeFailed is returned when the engine did not answer
	// "uci" with "uciok" in time.
	ErrEngineHandshakeFailed = errors.New("engine handshake failed")

	// ErrEngineClosedUnexpectedly is returned when the engine output ended,
	// or a command could not be written, before a best move was reported and
	// before a stop was requested.
	ErrEngineClosedUnexpectedly = errors.New("engine closed unexpectedly")

	// ErrAnalysisTimeout is returned when the hard ceiling elapsed without a
	// best move.
	ErrAnalysisTimeout = errors.New("analysis timed out")
)
