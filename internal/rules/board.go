// Package rules adapts the notnil/chess move generator to the stack-based
// apply/undo interface the search engine and session state machine consume.
// Positions from notnil/chess are immutable, so Apply pushes the updated
// position and Undo pops it; the position observed before a search is the
// same object observed after it.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// Outcome describes why a finished game ended and who won.
// Winner is empty for draws.
type Outcome struct {
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason"`
}

// ColorName renders a color the way the wire format and FEN speak about it.
func ColorName(c chess.Color) string {
	switch c {
	case chess.White:
		return "white"
	case chess.Black:
		return "black"
	}
	return ""
}

const (
	ReasonCheckmate            = "checkmate"
	ReasonStalemate            = "stalemate"
	ReasonInsufficientMaterial = "insufficient_material"
	ReasonFiftyMoves           = "fifty_moves"
	ReasonResignation          = "resignation"
)

// Board is a chess position plus the history needed to undo moves.
// All mutation goes through Apply/Undo so that every Apply is reversible.
type Board struct {
	stack  []*chess.Position
	moves  []*chess.Move
	clocks []int // halfmove clock per stack entry, for the fifty-move rule
}

// NewBoard returns a board at the standard starting position.
func NewBoard() *Board {
	pos := chess.NewGame().Position()
	return &Board{
		stack:  []*chess.Position{pos},
		moves:  nil,
		clocks: []int{0},
	}
}

// NewBoardFEN returns a board seeded from a FEN string.
func NewBoardFEN(fen string) (*Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	pos := chess.NewGame(opt).Position()
	return &Board{
		stack:  []*chess.Position{pos},
		moves:  nil,
		clocks: []int{halfMoveClock(fen)},
	}, nil
}

// halfMoveClock reads field 5 of a FEN string, tolerating short FENs.
func halfMoveClock(fen string) int {
	parts := strings.Fields(fen)
	if len(parts) < 5 {
		return 0
	}
	n, err := strconv.Atoi(parts[4])
	if err != nil {
		return 0
	}
	return n
}

func (b *Board) position() *chess.Position {
	return b.stack[len(b.stack)-1]
}

// LegalMoves returns every legal move for the side to move. The order is
// the generator's enumeration order; it is deterministic for a fixed
// position and callers rely on it for tie-breaking.
func (b *Board) LegalMoves() []*chess.Move {
	return b.position().ValidMoves()
}

// Apply plays a move. The move must come from LegalMoves.
func (b *Board) Apply(m *chess.Move) {
	pos := b.position()

	clock := b.clocks[len(b.clocks)-1] + 1
	moved := pos.Board().Piece(m.S1())
	if moved.Type() == chess.Pawn || m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant) {
		clock = 0
	}

	b.stack = append(b.stack, pos.Update(m))
	b.moves = append(b.moves, m)
	b.clocks = append(b.clocks, clock)
}

// Undo reverses the most recent Apply. Calling it with no applied move is a
// programming error and panics.
func (b *Board) Undo() {
	if len(b.moves) == 0 {
		panic("rules: Undo without a matching Apply")
	}
	b.stack = b.stack[:len(b.stack)-1]
	b.moves = b.moves[:len(b.moves)-1]
	b.clocks = b.clocks[:len(b.clocks)-1]
}

// SideToMove returns the color whose turn it is.
func (b *Board) SideToMove() chess.Color {
	return b.position().Turn()
}

// PieceAt returns the piece on a square, or chess.NoPiece.
func (b *Board) PieceAt(sq chess.Square) chess.Piece {
	return b.position().Board().Piece(sq)
}

// PieceCount counts pieces of one type and color on the board.
func (b *Board) PieceCount(pt chess.PieceType, c chess.Color) int {
	board := b.position().Board()
	count := 0
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p != chess.NoPiece && p.Type() == pt && p.Color() == c {
			count++
		}
	}
	return count
}

// LastMove returns the most recently applied move, or nil before any move.
func (b *Board) LastMove() *chess.Move {
	if len(b.moves) == 0 {
		return nil
	}
	return b.moves[len(b.moves)-1]
}

// Moves returns the applied moves in order, oldest first.
func (b *Board) Moves() []*chess.Move {
	out := make([]*chess.Move, len(b.moves))
	copy(out, b.moves)
	return out
}

// MoveCount returns how many moves have been applied (plies, not full moves).
func (b *Board) MoveCount() int {
	return len(b.moves)
}

// FEN returns the current position in FEN notation.
func (b *Board) FEN() string {
	return b.position().String()
}

// HalfMoveClock returns plies since the last capture or pawn move.
func (b *Board) HalfMoveClock() int {
	return b.clocks[len(b.clocks)-1]
}

// IsTerminal reports whether the game is over: checkmate, stalemate,
// insufficient material, or the fifty-move rule. Threefold repetition is a
// claimable draw, not an automatic one, and is not included.
func (b *Board) IsTerminal() bool {
	if b.position().Status() != chess.NoMethod {
		return true
	}
	return b.insufficientMaterial() || b.clocks[len(b.clocks)-1] >= 100
}

// Result returns the outcome of a terminal position, or nil if the game is
// still in progress.
func (b *Board) Result() *Outcome {
	switch b.position().Status() {
	case chess.Checkmate:
		// The side to move has been mated.
		return &Outcome{Winner: ColorName(b.SideToMove().Other()), Reason: ReasonCheckmate}
	case chess.Stalemate:
		return &Outcome{Reason: ReasonStalemate}
	}
	if b.insufficientMaterial() {
		return &Outcome{Reason: ReasonInsufficientMaterial}
	}
	if b.clocks[len(b.clocks)-1] >= 100 {
		return &Outcome{Reason: ReasonFiftyMoves}
	}
	return nil
}

// insufficientMaterial reports the FIDE dead positions: K vs K, K+minor vs
// K, and K+B vs K+B with both bishops on the same square color.
func (b *Board) insufficientMaterial() bool {
	board := b.position().Board()

	var whiteMinors, blackMinors int
	var whiteBishopLight, blackBishopLight bool
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p == chess.NoPiece || p.Type() == chess.King {
			continue
		}
		switch p.Type() {
		case chess.Pawn, chess.Rook, chess.Queen:
			return false
		case chess.Bishop:
			light := (int(sq.File())+int(sq.Rank()))%2 == 1
			if p.Color() == chess.White {
				whiteMinors++
				whiteBishopLight = light
			} else {
				blackMinors++
				blackBishopLight = light
			}
		case chess.Knight:
			if p.Color() == chess.White {
				whiteMinors++
			} else {
				blackMinors++
			}
		}
	}

	if whiteMinors == 0 && blackMinors == 0 {
		return true
	}
	if whiteMinors+blackMinors == 1 {
		return true
	}
	if whiteMinors == 1 && blackMinors == 1 &&
		b.PieceCount(chess.Bishop, chess.White) == 1 &&
		b.PieceCount(chess.Bishop, chess.Black) == 1 {
		return whiteBishopLight == blackBishopLight
	}
	return false
}

// FindMove looks up a legal move by origin and destination squares. When the
// pair matches several moves (promotions), the queen promotion is chosen.
// Returns nil if no legal move matches.
func (b *Board) FindMove(from, to chess.Square) *chess.Move {
	var found *chess.Move
	for _, m := range b.LegalMoves() {
		if m.S1() != from || m.S2() != to {
			continue
		}
		if m.Promo() == chess.NoPieceType || m.Promo() == chess.Queen {
			return m
		}
		if found == nil {
			found = m
		}
	}
	return found
}

// ParseSquare converts coordinates like "e4" to a chess.Square.
func ParseSquare(s string) (chess.Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, fmt.Errorf("invalid square %q", s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	return chess.Square(rank*8 + file), nil
}
