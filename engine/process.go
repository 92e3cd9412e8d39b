package engine

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// waitDelay bounds how long reaping waits for stray holders of the engine's
// stderr once the process itself has exited.
const waitDelay = time.Second

// Process is a running engine and its standard streams. It belongs to
// exactly one session and is never shared.
type Process struct {
	Path string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	stderr *io.PipeWriter
	log    *log.Entry

	done    chan struct{}
	waitErr error

	closeOnce sync.Once
}

// SpawnFunc starts the executable at path with no arguments. env is appended
// to the current environment.
type SpawnFunc func(path string, env []string) (*Process, error)

// StartProcess is the default SpawnFunc. stdin and stdout are pipes owned
// by the returned Process, stderr is streamed into the logger at debug
// level.
func StartProcess(path string, env []string) (*Process, error) {
	cmd := exec.Command(path)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.WaitDelay = waitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	// stdout is our own pipe rather than cmd.StdoutPipe so that reaping the
	// process never races with reads of output it already wrote
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	cmd.Stdout = stdoutW

	entry := log.WithField("engine", path)
	stderr := entry.WriterLevel(log.DebugLevel)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		stderr.Close()
		return nil, err
	}
	stdoutW.Close()

	p := &Process{
		Path:   path,
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdoutR,
		stderr: stderr,
		log:    entry.WithField("pid", cmd.Process.Pid),
		done:   make(chan struct{}),
	}
	go p.reap()

	return p, nil
}

func (p *Process) reap() {
	p.waitErr = p.cmd.Wait()
	p.stderr.Close()
	close(p.done)
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the process has exited and been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitErr is the result of waiting for the process. It is only meaningful
// once Exited returns true.
func (p *Process) ExitErr() error {
	if !p.Exited() {
		return nil
	}
	return p.waitErr
}

// Send writes one newline-terminated command to the engine.
func (p *Process) Send(command string) error {
	p.log.WithField("command", command).Trace("engine <")
	_, err := io.WriteString(p.stdin, command+"\n")
	return err
}

// Read reads raw engine output.
func (p *Process) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

// Kill kills the process. Killing a process that has already exited is a
// no-op.
func (p *Process) Kill() error {
	if p.Exited() {
		return nil
	}
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Terminate asks the engine to quit, kills it if it is still running after
// grace, and returns once it has been reaped and its streams are closed. A
// zero grace kills straight away.
func (p *Process) Terminate(grace time.Duration) {
	if grace > 0 {
		_ = p.Send("quit")
		_ = p.stdin.Close()

		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case <-p.done:
		case <-timer.C:
			p.log.WithField("grace", grace).Debug("engine did not quit in time, killing it")
		}
	}

	if err := p.Kill(); err != nil {
		p.log.WithError(err).Warn("could not kill engine")
	}
	<-p.done

	p.Close()
}

// Close closes the streams owned by the parent. It unblocks any pending
// Read and is safe to call more than once.
func (p *Process) Close() {
	p.closeOnce.Do(func() {
		p.stdin.Close()
		p.stdout.Close()
	})
}
