package engine

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// searchState is where a session is in its search.
//
//	Idle -> Searching -> Completing -> Done   (depth budget)
//	Idle -> Searching -> Stopping   -> Done   (time budget)
//
// A best move moves any state straight to Done.
type searchState int

const (
	stateIdle searchState = iota
	stateSearching
	stateCompleting
	stateStopping
	stateDone
)

func (s searchState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSearching:
		return "searching"
	case stateCompleting:
		return "completing"
	case stateStopping:
		return "stopping"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("searchState(%d)", int(s))
	}
}

func (s *session) transition(to searchState) {
	s.log.WithFields(log.Fields{
		"from": s.state,
		"to":   to,
	}).Trace("Search state")
	s.state = to
}

// search starts the search for budget b and decides when it is over. It
// returns the snapshot as it stood when the search ended; on error that
// snapshot holds whatever progress had been observed.
func (s *session) search(ctx context.Context, b Budget) (Snapshot, error) {
	s.unbounded = b.Kind == BudgetDuration
	if err := s.send(b.goCommand()); err != nil {
		return s.snap, err
	}

	started := time.Now()
	s.transition(stateSearching)

	finish := func(partial bool) Snapshot {
		s.snap.ElapsedMillis = time.Since(started).Milliseconds()
		s.snap.Partial = partial
		s.transition(stateDone)
		return s.snap
	}

	// deadline fires once for timed searches; grace runs after "stop"
	var deadline, grace <-chan time.Time
	if b.Kind == BudgetDuration {
		t := time.NewTimer(b.Duration)
		defer t.Stop()
		deadline = t.C
	}

	for {
		select {
		case ev, ok := <-s.events:
			ev = received(ev, ok)

			switch ev.kind {
			case evInfo:
				s.snap.applyInfo(ev.info)
				if b.Kind == BudgetDepth && s.state == stateSearching && *ev.info.depth >= b.Depth {
					s.transition(stateCompleting)
				}

			case evBestMove:
				s.snap.applyBestMove(ev.bestMove, ev.ponder)
				return finish(false), nil

			case evClosed:
				if s.state == stateStopping {
					s.log.Debug("Engine exited after stop without a best move")
					return finish(true), nil
				}
				snap := finish(true)
				return snap, fmt.Errorf("%w: output ended during search: %v", ErrEngineClosedUnexpectedly, ev.err)
			}

		case <-deadline:
			deadline = nil
			if err := s.proc.Send("stop"); err != nil {
				s.log.WithError(err).Debug("Could not send stop")
			}
			s.stopSent = true
			s.transition(stateStopping)

			t := time.NewTimer(s.cfg.StopGrace)
			defer t.Stop()
			grace = t.C

		case <-grace:
			s.log.WithField("grace", s.cfg.StopGrace).Warn("Engine did not answer stop in time, returning partial analysis")
			s.forceKill = true
			return finish(true), nil

		case <-ctx.Done():
			snap := finish(true)
			s.forceKill = true
			return snap, contextError(ctx)
		}
	}
}
