// Package report turns engine snapshots into text for people.
//
// Engine scores are relative to the side to move. Everything this package
// shows is relative to White: positive favours White, negative favours
// Black, whoever is to move.
package report

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jacokyle01/chesseval/engine"
	"github.com/notnil/chess"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrInvalidFEN is returned for positions that do not parse.
var ErrInvalidFEN = errors.New("invalid FEN")

var printer = message.NewPrinter(language.English)

// Report holds everything shown for one analysed position.
type Report struct {
	Position    string `json:"position"`
	SideToMove  string `json:"side_to_move"`
	Evaluation  string `json:"evaluation"`
	Description string `json:"description"`
	Depth       string `json:"depth"`
	BestMove    string `json:"best_move"`
	Nodes       string `json:"nodes"`
	Time        string `json:"time"`
	Partial     bool   `json:"partial,omitempty"`

	// WhiteScore is the score from White's point of view, if any.
	WhiteScore *engine.Score `json:"-"`
}

// Parse validates fen and returns the position it describes.
func Parse(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFEN, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// SideToMove returns whose turn it is in fen.
func SideToMove(fen string) (chess.Color, error) {
	pos, err := Parse(fen)
	if err != nil {
		return chess.NoColor, err
	}
	return pos.Turn(), nil
}

// WhiteScore converts an engine score to White's point of view.
func WhiteScore(s engine.Score, turn chess.Color) engine.Score {
	if turn == chess.Black {
		return s.Negate()
	}
	return s
}

// Build formats snap, an analysis of fen.
func Build(fen string, snap engine.Snapshot) (Report, error) {
	pos, err := Parse(fen)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Position:   fen,
		SideToMove: pos.Turn().Name(),
		Depth:      "N/A",
		BestMove:   "None",
		Nodes:      "N/A",
		Time:       fmt.Sprintf("%dms", snap.ElapsedMillis),
		Partial:    snap.Partial,
	}

	if snap.Score != nil {
		ws := WhiteScore(*snap.Score, pos.Turn())
		r.WhiteScore = &ws
	}
	r.Evaluation = Evaluation(r.WhiteScore)
	r.Description = Description(r.WhiteScore)

	// mate 0 means the side to move is already mated, which the sign of
	// the score cannot express
	if snap.Score != nil && snap.Score.Kind == engine.MateIn && snap.Score.Value == 0 {
		r.Evaluation = fmt.Sprintf("Checkmate (%s wins)", pos.Turn().Other().Name())
		r.Description = fmt.Sprintf("%s is checkmated", pos.Turn().Name())
	}

	if snap.Depth != nil {
		r.Depth = fmt.Sprint(*snap.Depth)
	}
	if snap.BestMove != "" {
		r.BestMove = MoveText(pos, snap.BestMove)
	}
	if snap.Nodes != nil {
		r.Nodes = printer.Sprintf("%d", *snap.Nodes)
	}

	return r, nil
}

// MoveText shows a UCI move in algebraic notation with the UCI form in
// brackets, or just the UCI form if it is not legal in pos.
func MoveText(pos *chess.Position, uciMove string) string {
	for _, m := range pos.ValidMoves() {
		if m.String() == uciMove {
			return fmt.Sprintf("%s (%s)", chess.AlgebraicNotation{}.Encode(pos, m), uciMove)
		}
	}
	return uciMove
}

// Evaluation renders a White-relative score.
func Evaluation(s *engine.Score) string {
	if s == nil {
		return "N/A"
	}

	switch s.Kind {
	case engine.MateIn:
		switch {
		case s.Value > 0:
			return fmt.Sprintf("Mate in %d (White)", s.Value)
		case s.Value < 0:
			return fmt.Sprintf("Mate in %d (Black)", -s.Value)
		default:
			return "Checkmate"
		}
	case engine.Centipawns:
		pawns := float64(s.Value) / 100
		switch {
		case s.Value > 0:
			return fmt.Sprintf("+%.2f (White is better)", pawns)
		case s.Value < 0:
			return fmt.Sprintf("%.2f (Black is better)", pawns)
		default:
			return "0.00 (Equal)"
		}
	}

	return "N/A"
}

// Description puts a White-relative score into words.
func Description(s *engine.Score) string {
	if s == nil {
		return "No evaluation available"
	}

	if s.Kind == engine.MateIn {
		if s.Value == 0 {
			return "Checkmate"
		}
		if s.Value > 0 {
			return "Forced mate for White!"
		}
		return "Forced mate for Black!"
	}

	pawns := float64(s.Value) / 100
	side := "White"
	if pawns < 0 {
		side = "Black"
	}

	switch abs := math.Abs(pawns); {
	case abs < 0.5:
		return "Balanced position"
	case abs < 1.5:
		return "Slight advantage for " + side
	case abs < 3.0:
		return "Clear advantage for " + side
	default:
		return "Decisive advantage for " + side
	}
}

func (r Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Position:     %s\n", r.Position)
	fmt.Fprintf(&b, "Evaluation:   %s\n", r.Evaluation)
	fmt.Fprintf(&b, "              %s\n", r.Description)
	fmt.Fprintf(&b, "Side to move: %s\n", r.SideToMove)
	fmt.Fprintf(&b, "Best move:    %s\n", r.BestMove)
	fmt.Fprintf(&b, "Depth:        %s\n", r.Depth)
	fmt.Fprintf(&b, "Nodes:        %s\n", r.Nodes)
	fmt.Fprintf(&b, "Time:         %s\n", r.Time)
	if r.Partial {
		b.WriteString("(partial: the engine did not finish in time)\n")
	}

	return b.String()
}
