package engine

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"
)

// readChunk is how much engine output is read at a time
const readChunk = 4096

// session drives one engine process through one analysis. The reader
// goroutine (pump) owns stdout; everything else, including the snapshot,
// belongs to the goroutine that calls the session's methods.
type session struct {
	cfg  Config
	proc *Process
	log  *log.Entry

	events   chan event
	quit     chan struct{}
	pumpDone chan struct{}

	info EngineInfo

	state     searchState
	snap      Snapshot
	unbounded bool
	stopSent  bool
	forceKill bool
}

func newSession(cfg Config, proc *Process, entry *log.Entry) *session {
	s := &session{
		cfg:      cfg,
		proc:     proc,
		log:      entry.WithField("pid", proc.Pid()),
		events:   make(chan event),
		quit:     make(chan struct{}),
		pumpDone: make(chan struct{}),
		info:     EngineInfo{Path: proc.Path},
	}
	go s.pump()
	return s
}

// pump reads engine output until it ends or the session closes, and hands
// every meaningful line to the session in arrival order.
func (s *session) pump() {
	defer close(s.pumpDone)
	defer close(s.events)

	var lines lineBuffer
	buf := make([]byte, readChunk)

	for {
		n, err := s.proc.Read(buf)
		for _, line := range lines.feed(buf[:n]) {
			s.log.WithField("line", line).Trace("engine >")

			ev, ok := parseLine(line)
			if !ok {
				continue
			}
			if !s.emit(ev) {
				return
			}
		}

		if err != nil {
			s.emit(event{kind: evClosed, err: err})
			return
		}
	}
}

func (s *session) emit(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.quit:
		return false
	}
}

// received normalises a receive from the events channel; a closed channel
// reads as the end of output.
func received(ev event, ok bool) event {
	if !ok {
		return event{kind: evClosed, err: io.EOF}
	}
	return ev
}

func (s *session) send(command string) error {
	if err := s.proc.Send(command); err != nil {
		return fmt.Errorf("%w: writing %q: %w", ErrEngineClosedUnexpectedly, command, err)
	}
	return nil
}

// handshake sends "uci" and waits for "uciok", collecting the engine's id
// lines on the way.
func (s *session) handshake(ctx context.Context) error {
	if err := s.send("uci"); err != nil {
		return fmt.Errorf("%w: %w", ErrEngineHandshakeFailed, err)
	}

	timer := time.NewTimer(s.cfg.HandshakeTimeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-s.events:
			ev = received(ev, ok)
			switch ev.kind {
			case evID:
				if ev.idKey == "name" {
					s.info.Name = ev.idValue
				} else {
					s.info.Author = ev.idValue
				}
			case evUCIOK:
				s.log.WithField("name", s.info.Name).Debug("Engine handshake complete")
				return nil
			case evClosed:
				return fmt.Errorf("%w: output ended before uciok: %v", ErrEngineHandshakeFailed, ev.err)
			}
		case <-timer.C:
			return fmt.Errorf("%w: no uciok within %v", ErrEngineHandshakeFailed, s.cfg.HandshakeTimeout)
		case <-ctx.Done():
			return contextError(ctx)
		}
	}
}

// prepare configures the engine and sets up the position. None of these
// commands are acknowledged.
func (s *session) prepare(position string) error {
	commands := []string{
		fmt.Sprintf("setoption name Threads value %d", s.cfg.Threads),
		fmt.Sprintf("setoption name Hash value %d", s.cfg.HashMB),
	}
	for _, name := range slices.Sorted(maps.Keys(s.cfg.Options)) {
		commands = append(commands, fmt.Sprintf("setoption name %s value %s", name, s.cfg.Options[name]))
	}
	commands = append(commands, "ucinewgame", positionCommand(position))

	for _, c := range commands {
		if err := s.send(c); err != nil {
			return err
		}
	}
	return nil
}

func positionCommand(position string) string {
	if position == "startpos" {
		return "position startpos"
	}
	return "position fen " + position
}

// close tears the engine down. It runs on every exit path and returns only
// once the process has been reaped and the reader goroutine has stopped.
func (s *session) close() {
	close(s.quit)

	grace := s.cfg.KillGrace
	if s.forceKill {
		grace = 0
	} else if s.unbounded && !s.stopSent {
		_ = s.proc.Send("stop")
		s.stopSent = true
	}

	s.proc.Terminate(grace)
	<-s.pumpDone

	s.log.WithField("exit", s.proc.ExitErr()).Trace("Engine reaped")
}

// contextError reports why the session context ended. The hard ceiling
// carries ErrAnalysisTimeout as its cause.
func contextError(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return ctx.Err()
}
