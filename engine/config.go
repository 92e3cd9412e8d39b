package engine

import (
	"runtime"
	"time"
)

const (
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultHardTimeout      = 30 * time.Second
	DefaultStopGrace        = 1 * time.Second
	DefaultKillGrace        = 500 * time.Millisecond
	DefaultThreads          = 1
	DefaultHashMB           = 16
)

// Config controls how engines are located and driven. The zero value is not
// useful; start from DefaultConfig.
type Config struct {
	// Candidates are executable paths or names tried in order.
	Candidates []string

	// Env is appended to the current environment of every engine process.
	Env []string

	Threads int
	HashMB  int

	// Options are extra "setoption" commands, sent in key order after
	// Threads and Hash.
	Options map[string]string

	// HandshakeTimeout bounds the wait for "uciok".
	HandshakeTimeout time.Duration

	// HardTimeout is the ceiling for a whole session regardless of budget.
	HardTimeout time.Duration

	// StopGrace is how long a timed search waits for "bestmove" after
	// sending "stop".
	StopGrace time.Duration

	// KillGrace is how long teardown waits for the process to exit after
	// "quit" before killing it.
	KillGrace time.Duration
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Candidates:       DefaultCandidates(runtime.GOOS),
		Threads:          DefaultThreads,
		HashMB:           DefaultHashMB,
		HandshakeTimeout: DefaultHandshakeTimeout,
		HardTimeout:      DefaultHardTimeout,
		StopGrace:        DefaultStopGrace,
		KillGrace:        DefaultKillGrace,
	}
}

// DefaultCandidates lists where stockfish is usually found on goos.
func DefaultCandidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			"stockfish.exe",
			"stockfish",
			`C:\Program Files\Stockfish\stockfish.exe`,
			`C:\Program Files (x86)\Stockfish\stockfish.exe`,
			`..\stockfish\stockfish-windows-x86-64-avx2.exe`,
		}
	case "darwin":
		return []string{
			"stockfish",
			"/opt/homebrew/bin/stockfish",
			"/usr/local/bin/stockfish",
		}
	default:
		return []string{
			"stockfish",
			"/usr/games/stockfish",
			"/usr/local/bin/stockfish",
			"../stockfish/stockfish-ubuntu-x86-64-avx512",
			"../stockfish/stockfish-ubuntu-x86-64-avx2",
		}
	}
}

// withDefaults fills zero durations and sizes so a partially filled Config
// still behaves.
func (c Config) withDefaults() Config {
	if len(c.Candidates) == 0 {
		c.Candidates = DefaultCandidates(runtime.GOOS)
	}
	if c.Threads <= 0 {
		c.Threads = DefaultThreads
	}
	if c.HashMB <= 0 {
		c.HashMB = DefaultHashMB
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.HardTimeout <= 0 {
		c.HardTimeout = DefaultHardTimeout
	}
	if c.StopGrace <= 0 {
		c.StopGrace = DefaultStopGrace
	}
	if c.KillGrace <= 0 {
		c.KillGrace = DefaultKillGrace
	}
	return c
}

// ceiling is the hard deadline for a session analysing with budget b. A
// timed search always gets room for the handshake and its own stop and kill
// windows, so its soft deadline fires first.
func (c Config) ceiling(b Budget) time.Duration {
	if b.Kind == BudgetDuration {
		if d := c.HandshakeTimeout + b.Duration + c.StopGrace + c.KillGrace; d > c.HardTimeout {
			return d
		}
	}
	return c.HardTimeout
}
