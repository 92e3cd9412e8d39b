package report

import (
	"testing"

	"github.com/jacokyle01/chesseval/engine"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	startFEN     = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	afterE4FEN   = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	scholarsFEN  = "r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 2 3"
	blackMateFEN = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	whiteMateFEN = "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4"
)

func TestSideToMove(t *testing.T) {
	c, err := SideToMove(startFEN)
	require.NoError(t, err)
	assert.Equal(t, chess.White, c)

	c, err = SideToMove(afterE4FEN)
	require.NoError(t, err)
	assert.Equal(t, chess.Black, c)

	_, err = SideToMove("not a fen")
	assert.ErrorIs(t, err, ErrInvalidFEN)
}

func TestWhiteScore(t *testing.T) {
	assert.Equal(t, engine.CP(35), WhiteScore(engine.CP(35), chess.White))
	assert.Equal(t, engine.CP(-35), WhiteScore(engine.CP(35), chess.Black))
	assert.Equal(t, engine.Mate(-3), WhiteScore(engine.Mate(3), chess.Black))
}

func TestEvaluation(t *testing.T) {
	score := func(s engine.Score) *engine.Score { return &s }

	tests := []struct {
		score *engine.Score
		want  string
	}{
		{nil, "N/A"},
		{score(engine.CP(35)), "+0.35 (White is better)"},
		{score(engine.CP(-120)), "-1.20 (Black is better)"},
		{score(engine.CP(0)), "0.00 (Equal)"},
		{score(engine.Mate(3)), "Mate in 3 (White)"},
		{score(engine.Mate(-1)), "Mate in 1 (Black)"},
		{score(engine.Mate(0)), "Checkmate"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Evaluation(tt.score))
	}
}

func TestDescription(t *testing.T) {
	score := func(s engine.Score) *engine.Score { return &s }

	tests := []struct {
		score *engine.Score
		want  string
	}{
		{nil, "No evaluation available"},
		{score(engine.CP(49)), "Balanced position"},
		{score(engine.CP(-49)), "Balanced position"},
		{score(engine.CP(50)), "Slight advantage for White"},
		{score(engine.CP(-149)), "Slight advantage for Black"},
		{score(engine.CP(150)), "Clear advantage for White"},
		{score(engine.CP(-299)), "Clear advantage for Black"},
		{score(engine.CP(300)), "Decisive advantage for White"},
		{score(engine.CP(-1000)), "Decisive advantage for Black"},
		{score(engine.Mate(2)), "Forced mate for White!"},
		{score(engine.Mate(-2)), "Forced mate for Black!"},
		{score(engine.Mate(0)), "Checkmate"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Description(tt.score))
	}
}

func TestBuildWhiteToMove(t *testing.T) {
	depth, nodes := 10, int64(1234567)
	s := engine.CP(35)

	r, err := Build(startFEN, engine.Snapshot{
		BestMove:      "e2e4",
		Score:         &s,
		Depth:         &depth,
		Nodes:         &nodes,
		ElapsedMillis: 812,
	})
	require.NoError(t, err)

	assert.Equal(t, "White", r.SideToMove)
	assert.Equal(t, "+0.35 (White is better)", r.Evaluation)
	assert.Equal(t, "Balanced position", r.Description)
	assert.Equal(t, "e4 (e2e4)", r.BestMove)
	assert.Equal(t, "10", r.Depth)
	assert.Equal(t, "1,234,567", r.Nodes)
	assert.Equal(t, "812ms", r.Time)
	assert.Contains(t, r.String(), "Best move:    e4 (e2e4)")
}

func TestBuildBlackToMoveNegates(t *testing.T) {
	s := engine.CP(80)

	r, err := Build(afterE4FEN, engine.Snapshot{BestMove: "e7e5", Score: &s})
	require.NoError(t, err)

	assert.Equal(t, "Black", r.SideToMove)
	assert.Equal(t, "-0.80 (Black is better)", r.Evaluation)
	assert.Equal(t, "Slight advantage for Black", r.Description)
	assert.Equal(t, engine.CP(-80), *r.WhiteScore)
	assert.Equal(t, "e5 (e7e5)", r.BestMove)
}

func TestBuildMate(t *testing.T) {
	s := engine.Mate(1)

	r, err := Build(scholarsFEN, engine.Snapshot{BestMove: "h5f7", Score: &s})
	require.NoError(t, err)

	assert.Equal(t, "Mate in 1 (White)", r.Evaluation)
	assert.Equal(t, "Qxf7# (h5f7)", r.BestMove)
}

func TestBuildCheckmatedSideLoses(t *testing.T) {
	s := engine.Mate(0)

	r, err := Build(blackMateFEN, engine.Snapshot{Score: &s})
	require.NoError(t, err)

	assert.Equal(t, "White", r.SideToMove)
	assert.Equal(t, "Checkmate (Black wins)", r.Evaluation)
	assert.Equal(t, "White is checkmated", r.Description)

	s = engine.Mate(0)
	r, err = Build(whiteMateFEN, engine.Snapshot{Score: &s})
	require.NoError(t, err)

	assert.Equal(t, "Checkmate (White wins)", r.Evaluation)
	assert.Equal(t, "Black is checkmated", r.Description)
}

func TestBuildEmptySnapshot(t *testing.T) {
	r, err := Build(blackMateFEN, engine.Snapshot{Partial: true})
	require.NoError(t, err)

	assert.Equal(t, "N/A", r.Evaluation)
	assert.Equal(t, "None", r.BestMove)
	assert.Equal(t, "N/A", r.Depth)
	assert.Equal(t, "N/A", r.Nodes)
	assert.True(t, r.Partial)
	assert.Contains(t, r.String(), "partial")
}

func TestMoveTextFallsBackForIllegalMoves(t *testing.T) {
	pos, err := Parse(startFEN)
	require.NoError(t, err)

	assert.Equal(t, "e2e5", MoveText(pos, "e2e5"))
	assert.Equal(t, "Nf3 (g1f3)", MoveText(pos, "g1f3"))
}
