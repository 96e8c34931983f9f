// Package session owns the turn alternation between a human player and the
// built-in engine. A session is a small state machine driven by square
// clicks; it never mutates the position except through validated rules
// moves, and it records the outcome once the game is over.
package session

import (
	"github.com/notnil/chess"

	"clickchess/internal/engine"
	"clickchess/internal/rules"
)

// State identifies where the session is in its click/turn cycle.
type State string

const (
	// StateAwaitingOrigin: human's turn, no square selected yet.
	StateAwaitingOrigin State = "awaiting_origin"
	// StateAwaitingDestination: human picked a piece, waiting for a target.
	StateAwaitingDestination State = "awaiting_destination"
	// StateEngineToMove: the engine owes a move.
	StateEngineToMove State = "engine_to_move"
	// StateGameOver is absorbing; no further input is accepted.
	StateGameOver State = "game_over"
)

// Session is a single human-vs-engine game. Not safe for concurrent use;
// callers serialize access (the handlers hold a per-session lock).
type Session struct {
	board         *rules.Board
	humanColor    chess.Color
	depth         int
	state         State
	pendingOrigin chess.Square
	outcome       *rules.Outcome
}

// Snapshot is the read-only render model sent to clients.
type Snapshot struct {
	FEN           string         `json:"fen"`
	Turn          string         `json:"turn"`
	HumanColor    string         `json:"humanColor"`
	State         State          `json:"state"`
	PendingOrigin string         `json:"pendingOrigin,omitempty"`
	LastMoveFrom  string         `json:"lastMoveFrom,omitempty"`
	LastMoveTo    string         `json:"lastMoveTo,omitempty"`
	MoveCount     int            `json:"moveCount"`
	Terminal      bool           `json:"terminal"`
	Outcome       *rules.Outcome `json:"outcome,omitempty"`
}

// New starts a session from the standard initial position. If the human
// plays Black the engine owes the first move.
func New(humanColor chess.Color, depth int) *Session {
	s := &Session{
		board:         rules.NewBoard(),
		humanColor:    humanColor,
		depth:         depth,
		pendingOrigin: chess.NoSquare,
	}
	s.enterTurn()
	return s
}

// NewFromFEN starts a session from an arbitrary position.
func NewFromFEN(fen string, humanColor chess.Color, depth int) (*Session, error) {
	board, err := rules.NewBoardFEN(fen)
	if err != nil {
		return nil, err
	}
	s := &Session{
		board:         board,
		humanColor:    humanColor,
		depth:         depth,
		pendingOrigin: chess.NoSquare,
	}
	s.enterTurn()
	return s, nil
}

// enterTurn sets the state for the side to move, or GameOver on a terminal
// position.
func (s *Session) enterTurn() {
	if s.board.IsTerminal() {
		s.outcome = s.board.Result()
		s.state = StateGameOver
		return
	}
	if s.board.SideToMove() == s.humanColor {
		s.state = StateAwaitingOrigin
	} else {
		s.state = StateEngineToMove
	}
}

// HandleClick feeds one square click into the state machine and reports
// whether anything changed. Clicks during the engine's turn or after the
// game is over are ignored.
func (s *Session) HandleClick(sq chess.Square) bool {
	switch s.state {
	case StateAwaitingOrigin:
		p := s.board.PieceAt(sq)
		if p == chess.NoPiece || p.Color() != s.humanColor {
			return false
		}
		s.pendingOrigin = sq
		s.state = StateAwaitingDestination
		return true

	case StateAwaitingDestination:
		origin := s.pendingOrigin
		s.pendingOrigin = chess.NoSquare

		m := s.board.FindMove(origin, sq)
		if m == nil {
			// The failed destination is discarded, not reinterpreted as a
			// fresh origin selection.
			s.state = StateAwaitingOrigin
			return true
		}

		s.board.Apply(m)
		s.enterTurn()
		return true

	default:
		return false
	}
}

// PlayEngineTurn runs the search and applies the chosen move. Returns the
// move played, or nil when the turn was skipped (not the engine's turn, or
// the position was already terminal).
func (s *Session) PlayEngineTurn() *chess.Move {
	if s.state != StateEngineToMove {
		return nil
	}
	if s.board.IsTerminal() {
		// Should be unreachable if transitions are followed, but tolerated.
		s.outcome = s.board.Result()
		s.state = StateGameOver
		return nil
	}

	m := engine.BestMove(s.board, s.depth)
	if m == nil {
		s.outcome = s.board.Result()
		s.state = StateGameOver
		return nil
	}

	s.board.Apply(m)
	s.enterTurn()
	return m
}

// Resign ends the game in the engine's favor.
func (s *Session) Resign() {
	if s.state == StateGameOver {
		return
	}
	s.pendingOrigin = chess.NoSquare
	s.outcome = &rules.Outcome{
		Winner: rules.ColorName(s.humanColor.Other()),
		Reason: rules.ReasonResignation,
	}
	s.state = StateGameOver
}

// State returns the current machine state.
func (s *Session) State() State {
	return s.state
}

// Outcome returns the recorded result, or nil while the game is running.
func (s *Session) Outcome() *rules.Outcome {
	return s.outcome
}

// HumanColor returns the side the human controls.
func (s *Session) HumanColor() chess.Color {
	return s.humanColor
}

// Depth returns the engine search depth for this session.
func (s *Session) Depth() int {
	return s.depth
}

// Board exposes the underlying position for archival and tests.
func (s *Session) Board() *rules.Board {
	return s.board
}

// Snapshot builds the render model for the current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		FEN:        s.board.FEN(),
		Turn:       rules.ColorName(s.board.SideToMove()),
		HumanColor: rules.ColorName(s.humanColor),
		State:      s.state,
		MoveCount:  s.board.MoveCount(),
		Terminal:   s.state == StateGameOver,
		Outcome:    s.outcome,
	}
	if s.pendingOrigin != chess.NoSquare {
		snap.PendingOrigin = s.pendingOrigin.String()
	}
	if last := s.board.LastMove(); last != nil {
		snap.LastMoveFrom = last.S1().String()
		snap.LastMoveTo = last.S2().String()
	}
	return snap
}
