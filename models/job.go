package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jacokyle01/chesseval/engine"
	"github.com/jacokyle01/chesseval/report"
)

// DefaultDepth is used for jobs that set neither a depth nor a time.
const DefaultDepth = 15

// maxTimeMS is the longest time_ms that still fits in a time.Duration.
const maxTimeMS = math.MaxInt64 / int64(time.Millisecond)

// ErrInvalidJob is returned for jobs that cannot be queued.
var ErrInvalidJob = errors.New("invalid job")

// Job represents a chess position analysis job. Jobs created from a game
// carry the batch they belong to and the ply of the position in that game.
// A job is bounded either by Depth or by TimeMS, never both.
type Job struct {
	ID       string `json:"id"`
	BatchID  string `json:"batch_id,omitempty"`
	Ply      int    `json:"ply,omitempty"`
	FEN      string `json:"fen"`
	Depth    int    `json:"depth,omitempty"`
	TimeMS   int    `json:"time_ms,omitempty"`
	Priority int    `json:"priority"`
}

// Limits bounds what a single job may ask for.
type Limits struct {
	MaxDepth int
	MaxTime  time.Duration
}

// Normalize fills in the default budget for jobs that have none.
func (j *Job) Normalize() {
	if j.Depth == 0 && j.TimeMS == 0 {
		j.Depth = DefaultDepth
	}
}

// Validate checks the position and the budget against l.
func (j Job) Validate(l Limits) error {
	if _, err := report.Parse(j.FEN); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	switch {
	case j.Depth != 0 && j.TimeMS != 0:
		return fmt.Errorf("%w: set either depth or time_ms, not both", ErrInvalidJob)
	case j.Depth < 0 || j.TimeMS < 0:
		return fmt.Errorf("%w: depth and time_ms must not be negative", ErrInvalidJob)
	case l.MaxDepth > 0 && j.Depth > l.MaxDepth:
		return fmt.Errorf("%w: depth %d is above the limit of %d", ErrInvalidJob, j.Depth, l.MaxDepth)
	case int64(j.TimeMS) > maxTimeMS:
		return fmt.Errorf("%w: time_ms %d is out of range", ErrInvalidJob, j.TimeMS)
	case l.MaxTime > 0 && int64(j.TimeMS) > l.MaxTime.Milliseconds():
		return fmt.Errorf("%w: time_ms %d is above the limit of %v", ErrInvalidJob, j.TimeMS, l.MaxTime)
	}

	return nil
}

// Budget is the engine budget the job asks for.
func (j Job) Budget() engine.Budget {
	if j.TimeMS > 0 {
		return engine.Duration(time.Duration(j.TimeMS) * time.Millisecond)
	}
	if j.Depth > 0 {
		return engine.Depth(j.Depth)
	}
	return engine.Depth(DefaultDepth)
}

// Request is the engine request for the job.
func (j Job) Request() engine.Request {
	return engine.Request{Position: j.FEN, Budget: j.Budget()}
}
