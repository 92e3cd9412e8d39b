package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Locator finds a working engine executable among an ordered list of
// candidates. The first candidate that starts is used; the ones after it
// are never tried. Spawn failures only surface if every candidate fails.
type Locator struct {
	Candidates []string
	Env        []string

	// Spawn starts a candidate. Defaults to StartProcess.
	Spawn SpawnFunc

	mu       sync.Mutex
	resolved string
}

// NewLocator returns a Locator over candidates.
func NewLocator(candidates []string, env []string) *Locator {
	return &Locator{
		Candidates: candidates,
		Env:        env,
	}
}

// Locate starts an engine process. The candidate that worked last time is
// tried first; if it no longer starts the full ordered scan runs again
// without it.
func (l *Locator) Locate(ctx context.Context) (*Process, error) {
	spawn := l.Spawn
	if spawn == nil {
		spawn = StartProcess
	}

	var errs []error

	skip := l.cached()
	if skip != "" {
		p, err := spawn(skip, l.Env)
		if err == nil {
			return p, nil
		}
		log.WithError(err).WithField("engine", skip).Debug("Previously working engine did not start")
		errs = append(errs, fmt.Errorf("%w: %s: %w", ErrEngineSpawnFailed, skip, err))
		l.setCached("")
	}

	for _, candidate := range l.Candidates {
		if candidate == skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := spawn(candidate, l.Env)
		if err != nil {
			log.WithError(err).WithField("engine", candidate).Debug("Engine candidate did not start")
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrEngineSpawnFailed, candidate, err))
			continue
		}

		log.WithField("engine", candidate).Debug("Engine started")
		l.setCached(candidate)
		return p, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no candidates configured", ErrEngineNotFound)
	}
	return nil, fmt.Errorf("%w: tried %d candidates: %w", ErrEngineNotFound, len(errs), errors.Join(errs...))
}

// Resolved returns the candidate that started last, if any.
func (l *Locator) Resolved() string {
	return l.cached()
}

func (l *Locator) cached() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolved
}

func (l *Locator) setCached(path string) {
	l.mu.Lock()
	l.resolved = path
	l.mu.Unlock()
}
