package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRequest is returned by Analyze for requests that cannot be sent
// to an engine at all.
var ErrInvalidRequest = errors.New("invalid analysis request")

// BudgetKind says how an analysis is bounded.
type BudgetKind int

const (
	BudgetDepth BudgetKind = iota + 1
	BudgetDuration
)

// Budget bounds a single analysis either by search depth or by wall-clock
// time. Build one with Depth or Duration.
type Budget struct {
	Kind     BudgetKind
	Depth    int
	Duration time.Duration
}

// Depth returns a budget that searches to depth n ("go depth n").
func Depth(n int) Budget {
	return Budget{Kind: BudgetDepth, Depth: n}
}

// Duration returns a budget that searches for d ("go infinite" then "stop").
func Duration(d time.Duration) Budget {
	return Budget{Kind: BudgetDuration, Duration: d}
}

func (b Budget) String() string {
	switch b.Kind {
	case BudgetDepth:
		return fmt.Sprintf("depth %d", b.Depth)
	case BudgetDuration:
		return fmt.Sprintf("time %v", b.Duration)
	default:
		return "unknown budget"
	}
}

// Validate checks that the budget can be turned into a "go" command.
func (b Budget) Validate() error {
	switch b.Kind {
	case BudgetDepth:
		if b.Depth < 1 {
			return fmt.Errorf("%w: depth must be at least 1, got %d", ErrInvalidRequest, b.Depth)
		}
	case BudgetDuration:
		if b.Duration <= 0 {
			return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidRequest, b.Duration)
		}
	default:
		return fmt.Errorf("%w: budget kind %d", ErrInvalidRequest, b.Kind)
	}
	return nil
}

// goCommand renders the search-start command for the budget
func (b Budget) goCommand() string {
	if b.Kind == BudgetDepth {
		return fmt.Sprintf("go depth %d", b.Depth)
	}
	return "go infinite"
}

// Request is a single position to analyze. Position is a FEN string and is
// passed to the engine verbatim.
type Request struct {
	Position string
	Budget   Budget
}

// Validate checks the parts of a request the driver relies on. Legality of
// the position is the caller's concern.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Position) == "" {
		return fmt.Errorf("%w: empty position", ErrInvalidRequest)
	}
	if strings.ContainsAny(r.Position, "\r\n") {
		return fmt.Errorf("%w: position contains a line break", ErrInvalidRequest)
	}
	return r.Budget.Validate()
}

// ScoreKind tags a Score as a centipawn evaluation or a forced mate.
type ScoreKind int

const (
	Centipawns ScoreKind = iota + 1
	MateIn
)

// Score is an engine evaluation relative to the side to move. For MateIn,
// Value is the engine's mate distance as reported after "score mate"; a
// negative value means the side to move is being mated.
type Score struct {
	Kind  ScoreKind
	Value int
}

// CP returns a centipawn score.
func CP(v int) Score { return Score{Kind: Centipawns, Value: v} }

// Mate returns a mate score.
func Mate(v int) Score { return Score{Kind: MateIn, Value: v} }

// Negate flips the score to the other side's point of view.
func (s Score) Negate() Score {
	return Score{Kind: s.Kind, Value: -s.Value}
}

func (s Score) String() string {
	switch s.Kind {
	case Centipawns:
		return fmt.Sprintf("cp %d", s.Value)
	case MateIn:
		return fmt.Sprintf("mate %d", s.Value)
	default:
		return "none"
	}
}

// Snapshot is the latest known state of an analysis. While a session runs
// it is owned by that session; once returned it is never modified again.
//
// Optional fields are nil when the engine never reported them.
type Snapshot struct {
	BestMove string
	Ponder   string
	Score    *Score
	Depth    *int
	SelDepth *int
	Nodes    *int64
	NPS      *int64
	PV       []string

	// ElapsedMillis is the wall-clock time from the search-start command to
	// the end of the analysis.
	ElapsedMillis int64

	// Partial is set when the analysis ended without a best move, for
	// example when the engine ignored "stop" after a timed search.
	Partial bool

	final bool
}

// Complete reports whether a best-move record was observed.
func (s Snapshot) Complete() bool {
	return s.final
}

// EngineInfo is what an engine says about itself during the handshake.
type EngineInfo struct {
	Path   string
	Name   string
	Author string
}
