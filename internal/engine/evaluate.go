package engine

import (
	"github.com/notnil/chess"

	"clickchess/internal/rules"
)

// Material values in centipawns
const (
	pawnValue   = 100
	knightValue = 320
	bishopValue = 330
	rookValue   = 500
	queenValue  = 900
	kingValue   = 20000
)

var pieceValues = []struct {
	pt    chess.PieceType
	value int
}{
	{chess.Pawn, pawnValue},
	{chess.Knight, knightValue},
	{chess.Bishop, bishopValue},
	{chess.Rook, rookValue},
	{chess.Queen, queenValue},
	{chess.King, kingValue},
}

// Evaluate returns the material balance in centipawns relative to the side
// to move: positive means the player about to move is ahead. The search
// relies on this sign convention to compare scores across plies.
func Evaluate(b *rules.Board) int {
	score := 0
	for _, pv := range pieceValues {
		diff := b.PieceCount(pv.pt, chess.White) - b.PieceCount(pv.pt, chess.Black)
		score += pv.value * diff
	}
	if b.SideToMove() == chess.Black {
		score = -score
	}
	return score
}
