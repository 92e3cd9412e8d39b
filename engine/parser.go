package engine

import (
	"bytes"
	"strconv"
	"strings"
)

// lineBuffer reassembles engine output into lines. Bytes after the last
// newline are held back until the rest of the line arrives.
type lineBuffer struct {
	pending []byte
}

// feed appends chunk and returns every line it completed, in order, without
// the terminator.
func (b *lineBuffer) feed(chunk []byte) []string {
	b.pending = append(b.pending, chunk...)

	var lines []string
	off := 0
	for {
		i := bytes.IndexByte(b.pending[off:], '\n')
		if i < 0 {
			break
		}
		line := b.pending[off : off+i]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		lines = append(lines, string(line))
		off += i + 1
	}

	if off > 0 {
		n := copy(b.pending, b.pending[off:])
		b.pending = b.pending[:n]
	}

	return lines
}

type eventKind int

const (
	evUCIOK eventKind = iota + 1
	evID
	evInfo
	evBestMove
	evClosed
)

// event is one meaningful thing the engine said, or the end of its output
type event struct {
	kind eventKind

	info info

	bestMove string
	ponder   string

	idKey   string
	idValue string

	err error
}

// info is a progress record. Depth and score are always set for records
// that reach the session.
type info struct {
	depth    *int
	selDepth *int
	multiPV  int
	score    *Score
	nodes    *int64
	nps      *int64
	pv       []string
}

// parseLine classifies a single line of engine output. Lines that do not
// matter to a session return false.
func parseLine(line string) (event, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return event{}, false
	}

	switch fields[0] {
	case "uciok":
		return event{kind: evUCIOK}, true
	case "id":
		if len(fields) < 3 || (fields[1] != "name" && fields[1] != "author") {
			return event{}, false
		}
		return event{kind: evID, idKey: fields[1], idValue: strings.Join(fields[2:], " ")}, true
	case "bestmove":
		return parseBestMove(fields)
	case "info":
		in, ok := parseInfo(fields)
		if !ok {
			return event{}, false
		}
		return event{kind: evInfo, info: in}, true
	}

	return event{}, false
}

func parseBestMove(fields []string) (event, bool) {
	if len(fields) < 2 {
		return event{}, false
	}

	ev := event{kind: evBestMove, bestMove: fields[1]}
	if ev.bestMove == "(none)" {
		ev.bestMove = ""
	}
	for i := 2; i+1 < len(fields); i++ {
		if fields[i] == "ponder" {
			ev.ponder = fields[i+1]
			break
		}
	}

	return ev, true
}

// parseInfo walks the fields of an info line. Only records with both a
// depth and a score for the main line are kept.
func parseInfo(fields []string) (info, bool) {
	var in info

walk:
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if v, ok := intAt(fields, i+1); ok {
				in.depth = &v
				i++
			}
		case "seldepth":
			if v, ok := intAt(fields, i+1); ok {
				in.selDepth = &v
				i++
			}
		case "multipv":
			if v, ok := intAt(fields, i+1); ok {
				in.multiPV = v
				i++
			}
		case "score":
			if i+2 >= len(fields) {
				break walk
			}
			v, err := strconv.Atoi(fields[i+2])
			if err != nil {
				continue
			}
			switch fields[i+1] {
			case "cp":
				s := CP(v)
				in.score = &s
			case "mate":
				s := Mate(v)
				in.score = &s
			}
			i += 2
		case "nodes":
			if v, ok := int64At(fields, i+1); ok {
				in.nodes = &v
				i++
			}
		case "nps":
			if v, ok := int64At(fields, i+1); ok {
				in.nps = &v
				i++
			}
		case "pv":
			in.pv = append([]string(nil), fields[i+1:]...)
			break walk
		case "string":
			// free text up to the end of the line
			break walk
		}
	}

	if in.depth == nil || in.score == nil || in.multiPV > 1 {
		return info{}, false
	}
	return in, true
}

func intAt(fields []string, i int) (int, bool) {
	if i >= len(fields) {
		return 0, false
	}
	v, err := strconv.Atoi(fields[i])
	return v, err == nil
}

func int64At(fields []string, i int) (int64, bool) {
	if i >= len(fields) {
		return 0, false
	}
	v, err := strconv.ParseInt(fields[i], 10, 64)
	return v, err == nil
}

// applyInfo records progress. Once a best move has been seen nothing
// changes any more.
func (s *Snapshot) applyInfo(in info) {
	if s.final {
		return
	}

	s.Depth = in.depth
	s.Score = in.score
	if in.selDepth != nil {
		s.SelDepth = in.selDepth
	}
	if in.nodes != nil {
		s.Nodes = in.nodes
	}
	if in.nps != nil {
		s.NPS = in.nps
	}
	if in.pv != nil {
		s.PV = in.pv
	}
}

func (s *Snapshot) applyBestMove(move, ponder string) {
	if s.final {
		return
	}

	s.BestMove = move
	s.Ponder = ponder
	s.final = true
}
