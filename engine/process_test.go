package engine

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startStub(t *testing.T, env ...string) *Process {
	t.Helper()

	exe, err := os.Executable()
	require.NoError(t, err)

	p, err := StartProcess(exe, append([]string{stubEnv + "=1"}, env...))
	require.NoError(t, err)
	return p
}

func TestKillIsIdempotent(t *testing.T) {
	p := startStub(t, "STUB_IGNORE_QUIT=1")

	require.NoError(t, p.Kill())
	<-p.Done()

	assert.NoError(t, p.Kill())
	assert.NoError(t, p.Kill())
	assert.True(t, p.Exited())
	assert.Error(t, p.ExitErr(), "a killed process reports how it ended")

	p.Close()
	p.Close()
}

func TestTerminateQuitsGracefully(t *testing.T) {
	p := startStub(t)

	p.Terminate(2 * time.Second)

	assert.True(t, p.Exited())
	assert.NoError(t, p.ExitErr())
}

func TestTerminateKillsStuckProcess(t *testing.T) {
	p := startStub(t, "STUB_IGNORE_QUIT=1")

	start := time.Now()
	p.Terminate(100 * time.Millisecond)

	assert.True(t, p.Exited())
	assert.Less(t, time.Since(start), 2*time.Second)

	// terminating again is harmless
	p.Terminate(100 * time.Millisecond)
}

func TestSendAndRead(t *testing.T) {
	p := startStub(t)
	defer p.Terminate(time.Second)

	require.NoError(t, p.Send("uci"))

	var b lineBuffer
	buf := make([]byte, 64)
	var lines []string
	for !containsLine(lines, "uciok") {
		n, err := p.Read(buf)
		lines = append(lines, b.feed(buf[:n])...)
		require.NoError(t, err)
	}

	assert.Equal(t, "id name Stub Engine 1.0", lines[0])
}

func TestReadAfterExitReportsEOF(t *testing.T) {
	p := startStub(t)

	require.NoError(t, p.Send("quit"))
	<-p.Done()

	_, err := io.ReadAll(p)
	assert.NoError(t, err)

	p.Close()
	assert.Error(t, p.Send("uci"))
}

func containsLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}
