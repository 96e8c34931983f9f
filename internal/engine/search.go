package engine

import (
	"github.com/notnil/chess"

	"clickchess/internal/rules"
)

const infinity = 999999

// BestMove finds the best move for the side to move using fixed-depth
// minimax with alpha-beta pruning. Returns nil when no legal move exists
// (or when called with depth < 1, which is a caller bug).
//
// The first move whose score is strictly greater than the running best
// wins, so ties resolve to the earliest move in the generator's enumeration
// order. The board is restored to its input state before returning.
func BestMove(b *rules.Board, depth int) *chess.Move {
	if depth < 1 {
		return nil
	}

	var bestMove *chess.Move
	bestValue := -infinity - 1

	// The root plays the maximizing role itself; each child subtree is
	// searched from the opponent's point of view with a full window.
	for _, m := range b.LegalMoves() {
		b.Apply(m)
		value := minimax(b, depth-1, -infinity, infinity, false)
		b.Undo()

		if value > bestValue {
			bestValue = value
			bestMove = m
		}
	}

	return bestMove
}

// minimax scores a position from the root side's perspective. maximizing
// selects between the two branches; alpha and beta bound the window the
// parent still cares about and only ever narrow.
func minimax(b *rules.Board, depth, alpha, beta int, maximizing bool) int {
	if depth == 0 || b.IsTerminal() {
		// Evaluate is relative to the side to move; at minimizing nodes
		// that is the opponent, so flip back to the root's perspective.
		value := Evaluate(b)
		if !maximizing {
			value = -value
		}
		return value
	}

	if maximizing {
		best := -infinity
		for _, m := range b.LegalMoves() {
			b.Apply(m)
			value := minimax(b, depth-1, alpha, beta, false)
			b.Undo()

			if value > best {
				best = value
			}
			if value > alpha {
				alpha = value
			}
			if beta <= alpha {
				break // remaining siblings cannot affect the parent
			}
		}
		return best
	}

	best := infinity
	for _, m := range b.LegalMoves() {
		b.Apply(m)
		value := minimax(b, depth-1, alpha, beta, true)
		b.Undo()

		if value < best {
			best = value
		}
		if value < beta {
			beta = value
		}
		if beta <= alpha {
			break
		}
	}
	return best
}
