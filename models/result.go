package models

import (
	"strings"

	"github.com/jacokyle01/chesseval/engine"
)

const (
	ScoreTypeCP   = "cp"
	ScoreTypeMate = "mate"
)

// Result represents the analysis result. Eval is relative to the side to
// move, exactly as the engine reported it.
type Result struct {
	JobID     string `json:"job_id"`
	BestMove  string `json:"best_move"`
	Ponder    string `json:"ponder,omitempty"`
	ScoreType string `json:"score_type,omitempty"` // cp or mate, empty when unknown
	Eval      int    `json:"eval"`
	Depth     int    `json:"depth"`
	Nodes     int64  `json:"nodes"`
	NodesPerS int64  `json:"nodes_per_s"`
	PV        string `json:"pv"` // principal variation
	Time      int64  `json:"time_ms"`
	Partial   bool   `json:"partial,omitempty"`
	Worker    string `json:"worker,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewResult flattens a snapshot into a result for job jobID.
func NewResult(jobID string, snap engine.Snapshot) Result {
	r := Result{
		JobID:    jobID,
		BestMove: snap.BestMove,
		Ponder:   snap.Ponder,
		PV:       strings.Join(snap.PV, " "),
		Time:     snap.ElapsedMillis,
		Partial:  snap.Partial,
	}

	if snap.Score != nil {
		r.Eval = snap.Score.Value
		if snap.Score.Kind == engine.MateIn {
			r.ScoreType = ScoreTypeMate
		} else {
			r.ScoreType = ScoreTypeCP
		}
	}
	if snap.Depth != nil {
		r.Depth = *snap.Depth
	}
	if snap.Nodes != nil {
		r.Nodes = *snap.Nodes
	}
	if snap.NPS != nil {
		r.NodesPerS = *snap.NPS
	}

	return r
}

// Snapshot rebuilds the engine snapshot a result was made from, as far as
// the result carries it.
func (r Result) Snapshot() engine.Snapshot {
	snap := engine.Snapshot{
		BestMove:      r.BestMove,
		Ponder:        r.Ponder,
		PV:            strings.Fields(r.PV),
		ElapsedMillis: r.Time,
		Partial:       r.Partial,
	}

	switch r.ScoreType {
	case ScoreTypeCP:
		s := engine.CP(r.Eval)
		snap.Score = &s
	case ScoreTypeMate:
		s := engine.Mate(r.Eval)
		snap.Score = &s
	}
	if r.ScoreType != "" {
		depth := r.Depth
		snap.Depth = &depth
	}
	if r.Nodes > 0 {
		nodes := r.Nodes
		snap.Nodes = &nodes
	}
	if r.NodesPerS > 0 {
		nps := r.NodesPerS
		snap.NPS = &nps
	}

	return snap
}
