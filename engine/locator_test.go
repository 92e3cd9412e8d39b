package engine

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoSuchFile = errors.New("no such file")

// fakeSpawn succeeds only for the names in good and records every attempt.
func fakeSpawn(attempts *[]string, good ...string) SpawnFunc {
	return func(path string, env []string) (*Process, error) {
		*attempts = append(*attempts, path)
		for _, g := range good {
			if g == path {
				return &Process{Path: path}, nil
			}
		}
		return nil, errNoSuchFile
	}
}

func TestLocateTriesCandidatesInOrder(t *testing.T) {
	var attempts []string
	l := NewLocator([]string{"bad1", "bad2", "good", "never"}, nil)
	l.Spawn = fakeSpawn(&attempts, "good", "never")

	p, err := l.Locate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "good", p.Path)
	assert.Equal(t, []string{"bad1", "bad2", "good"}, attempts)
	assert.Equal(t, "good", l.Resolved())
}

func TestLocateUsesResolvedCandidateFirst(t *testing.T) {
	var attempts []string
	l := NewLocator([]string{"bad1", "bad2", "good"}, nil)
	l.Spawn = fakeSpawn(&attempts, "good")

	_, err := l.Locate(context.Background())
	require.NoError(t, err)

	attempts = nil
	p, err := l.Locate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "good", p.Path)
	assert.Equal(t, []string{"good"}, attempts)
}

func TestLocateRescansWhenResolvedCandidateBreaks(t *testing.T) {
	var attempts []string
	l := NewLocator([]string{"first", "second"}, nil)
	l.Spawn = fakeSpawn(&attempts, "first")

	_, err := l.Locate(context.Background())
	require.NoError(t, err)

	attempts = nil
	l.Spawn = fakeSpawn(&attempts, "second")

	p, err := l.Locate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "second", p.Path)
	assert.Equal(t, []string{"first", "second"}, attempts, "the broken candidate is not retried during the scan")
	assert.Equal(t, "second", l.Resolved())
}

func TestLocateAggregatesFailures(t *testing.T) {
	var attempts []string
	l := NewLocator([]string{"bad1", "bad2", "bad3"}, nil)
	l.Spawn = fakeSpawn(&attempts)

	_, err := l.Locate(context.Background())

	require.ErrorIs(t, err, ErrEngineNotFound)
	assert.ErrorIs(t, err, ErrEngineSpawnFailed)
	assert.ErrorIs(t, err, errNoSuchFile)
	for _, name := range []string{"bad1", "bad2", "bad3"} {
		assert.Contains(t, err.Error(), name)
	}
	assert.Equal(t, []string{"bad1", "bad2", "bad3"}, attempts)
	assert.Empty(t, l.Resolved())
}

func TestLocateNoCandidates(t *testing.T) {
	l := NewLocator(nil, nil)

	_, err := l.Locate(context.Background())
	assert.ErrorIs(t, err, ErrEngineNotFound)
}

func TestLocateStopsOnCancelledContext(t *testing.T) {
	var attempts []string
	l := NewLocator([]string{"bad1", "good"}, nil)
	l.Spawn = fakeSpawn(&attempts, "good")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Locate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, attempts)
}

func TestLocateRealProcesses(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	l := NewLocator([]string{"/nonexistent/stockfish", "not-an-engine-anywhere", exe}, []string{stubEnv + "=1"})

	p, err := l.Locate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, exe, p.Path)
	p.Terminate(DefaultKillGrace)
	assert.True(t, p.Exited())
}
