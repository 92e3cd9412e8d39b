package engine

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Analyzer runs analyses, each in a freshly started engine process. It is
// safe for concurrent use; concurrent analyses never share a process.
type Analyzer struct {
	cfg     Config
	locator *Locator
}

// NewAnalyzer returns an Analyzer for cfg. Zero fields in cfg take their
// defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	cfg = cfg.withDefaults()
	return &Analyzer{
		cfg:     cfg,
		locator: NewLocator(cfg.Candidates, cfg.Env),
	}
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze evaluates req.Position within req.Budget.
//
// Scores in the returned snapshot are relative to the side to move. A timed
// search whose engine does not answer "stop" in time returns a Partial
// snapshot and no error. On ErrAnalysisTimeout and
// ErrEngineClosedUnexpectedly the snapshot holds the progress seen so far.
// The engine process has always exited by the time Analyze returns.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Snapshot, error) {
	if err := req.Validate(); err != nil {
		return Snapshot{}, err
	}

	ceiling := a.cfg.ceiling(req.Budget)
	ctx, cancel := context.WithTimeoutCause(ctx, ceiling,
		fmt.Errorf("%w: no best move within %v", ErrAnalysisTimeout, ceiling))
	defer cancel()

	proc, err := a.locator.Locate(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	s := newSession(a.cfg, proc, log.WithFields(log.Fields{
		"engine": proc.Path,
		"budget": req.Budget.String(),
	}))
	defer s.close()

	if err := s.handshake(ctx); err != nil {
		return Snapshot{}, err
	}
	if err := s.prepare(req.Position); err != nil {
		return Snapshot{}, err
	}

	snap, err := s.search(ctx, req.Budget)
	if err != nil {
		s.log.WithError(err).WithField("state", s.state).Warn("Analysis failed")
		return snap, err
	}

	s.log.WithFields(log.Fields{
		"bestmove": snap.BestMove,
		"partial":  snap.Partial,
		"elapsed":  snap.ElapsedMillis,
	}).Debug("Analysis complete")

	return snap, nil
}

// Identify starts an engine, completes the handshake and shuts it down again,
// reporting what the engine says about itself.
func (a *Analyzer) Identify(ctx context.Context) (EngineInfo, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, a.cfg.HandshakeTimeout+a.cfg.KillGrace,
		fmt.Errorf("%w: no uciok within %v", ErrEngineHandshakeFailed, a.cfg.HandshakeTimeout))
	defer cancel()

	proc, err := a.locator.Locate(ctx)
	if err != nil {
		return EngineInfo{}, err
	}

	s := newSession(a.cfg, proc, log.WithField("engine", proc.Path))
	defer s.close()

	if err := s.handshake(ctx); err != nil {
		return EngineInfo{}, err
	}
	return s.info, nil
}
