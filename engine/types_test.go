package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBudgetGoCommand(t *testing.T) {
	assert.Equal(t, "go depth 18", Depth(18).goCommand())
	assert.Equal(t, "go infinite", Duration(3*time.Second).goCommand())
	assert.Equal(t, "depth 18", Depth(18).String())
	assert.Equal(t, "time 3s", Duration(3*time.Second).String())
}

func TestScoreNegate(t *testing.T) {
	assert.Equal(t, CP(-35), CP(35).Negate())
	assert.Equal(t, Mate(2), Mate(-2).Negate())
	assert.Equal(t, "cp 35", CP(35).String())
	assert.Equal(t, "mate -2", Mate(-2).String())
	assert.Equal(t, "none", Score{}.String())
}

func TestPositionCommand(t *testing.T) {
	assert.Equal(t, "position startpos", positionCommand("startpos"))
	assert.Equal(t, "position fen "+startFEN, positionCommand(startFEN))
}

func TestConfigCeiling(t *testing.T) {
	cfg := Config{
		HandshakeTimeout: time.Second,
		HardTimeout:      10 * time.Second,
		StopGrace:        time.Second,
		KillGrace:        500 * time.Millisecond,
	}

	assert.Equal(t, 10*time.Second, cfg.ceiling(Depth(30)))
	assert.Equal(t, 10*time.Second, cfg.ceiling(Duration(2*time.Second)))
	assert.Equal(t, 22500*time.Millisecond, cfg.ceiling(Duration(20*time.Second)))
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Candidates: []string{"sf"}, Threads: 4}.withDefaults()

	assert.Equal(t, []string{"sf"}, cfg.Candidates)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, DefaultHashMB, cfg.HashMB)
	assert.Equal(t, DefaultHandshakeTimeout, cfg.HandshakeTimeout)
	assert.Equal(t, DefaultHardTimeout, cfg.HardTimeout)
	assert.Equal(t, DefaultStopGrace, cfg.StopGrace)
	assert.Equal(t, DefaultKillGrace, cfg.KillGrace)
}

func TestDefaultCandidates(t *testing.T) {
	for _, goos := range []string{"linux", "darwin", "windows"} {
		c := DefaultCandidates(goos)
		assert.NotEmpty(t, c, goos)
		assert.Contains(t, c[0]+c[1], "stockfish", goos)
	}
}
