package models

import (
	"testing"
	"time"

	"github.com/jacokyle01/chesseval/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var limits = Limits{MaxDepth: 30, MaxTime: time.Minute}

func TestJobNormalize(t *testing.T) {
	j := Job{FEN: startFEN}
	j.Normalize()
	assert.Equal(t, DefaultDepth, j.Depth)

	j = Job{FEN: startFEN, TimeMS: 500}
	j.Normalize()
	assert.Zero(t, j.Depth)
}

func TestJobValidate(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		ok   bool
	}{
		{"depth", Job{FEN: startFEN, Depth: 12}, true},
		{"time", Job{FEN: startFEN, TimeMS: 1500}, true},
		{"bad fen", Job{FEN: "not a fen", Depth: 12}, false},
		{"both budgets", Job{FEN: startFEN, Depth: 12, TimeMS: 100}, false},
		{"negative depth", Job{FEN: startFEN, Depth: -1}, false},
		{"deep", Job{FEN: startFEN, Depth: 31}, false},
		{"long", Job{FEN: startFEN, TimeMS: 61000}, false},
		{"huge", Job{FEN: startFEN, TimeMS: 18446744073710}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate(limits)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidJob)
			}
		})
	}
}

func TestJobValidateHugeTimeWithoutLimit(t *testing.T) {
	err := Job{FEN: startFEN, TimeMS: 18446744073710}.Validate(Limits{})
	assert.ErrorIs(t, err, ErrInvalidJob)

	j := Job{FEN: startFEN, TimeMS: 1000}
	require.NoError(t, j.Validate(Limits{}))
	assert.Equal(t, engine.Duration(time.Second), j.Budget())
}

func TestJobBudget(t *testing.T) {
	assert.Equal(t, engine.Depth(12), Job{Depth: 12}.Budget())
	assert.Equal(t, engine.Duration(1500*time.Millisecond), Job{TimeMS: 1500}.Budget())
	assert.Equal(t, engine.Depth(DefaultDepth), Job{}.Budget())

	req := Job{FEN: startFEN, Depth: 8}.Request()
	assert.Equal(t, startFEN, req.Position)
	assert.NoError(t, req.Validate())
}

func TestResultFromSnapshot(t *testing.T) {
	depth, nodes, nps := 18, int64(2000000), int64(1000000)
	score := engine.Mate(-3)

	r := NewResult("job-1", engine.Snapshot{
		BestMove:      "e7e5",
		Ponder:        "g1f3",
		Score:         &score,
		Depth:         &depth,
		Nodes:         &nodes,
		NPS:           &nps,
		PV:            []string{"e7e5", "g1f3", "b8c6"},
		ElapsedMillis: 2000,
	})

	assert.Equal(t, "job-1", r.JobID)
	assert.Equal(t, ScoreTypeMate, r.ScoreType)
	assert.Equal(t, -3, r.Eval)
	assert.Equal(t, 18, r.Depth)
	assert.Equal(t, "e7e5 g1f3 b8c6", r.PV)
	assert.Equal(t, int64(2000), r.Time)
	assert.False(t, r.Partial)

	snap := r.Snapshot()
	require.NotNil(t, snap.Score)
	assert.Equal(t, score, *snap.Score)
	require.NotNil(t, snap.Depth)
	assert.Equal(t, 18, *snap.Depth)
	assert.Equal(t, []string{"e7e5", "g1f3", "b8c6"}, snap.PV)
	assert.Equal(t, "g1f3", snap.Ponder)
}

func TestResultFromEmptySnapshot(t *testing.T) {
	r := NewResult("job-2", engine.Snapshot{Partial: true})

	assert.Empty(t, r.ScoreType)
	assert.True(t, r.Partial)

	snap := r.Snapshot()
	assert.Nil(t, snap.Score)
	assert.Nil(t, snap.Depth)
	assert.Nil(t, snap.Nodes)
	assert.Empty(t, snap.PV)
}

func TestBatchRecord(t *testing.T) {
	b := NewBatch("b", []string{"j1", "j2"})
	assert.False(t, b.Done())

	assert.True(t, b.Record(Result{JobID: "j1"}))
	assert.True(t, b.Record(Result{JobID: "j1", BestMove: "e2e4"}))
	assert.False(t, b.Record(Result{JobID: "other"}))
	assert.Equal(t, 1, b.Completed)
	assert.Equal(t, "e2e4", b.Results["j1"].BestMove)

	b.Record(Result{JobID: "j2"})
	assert.True(t, b.Done())
}
