package session

import (
	"testing"

	"github.com/notnil/chess"

	"clickchess/internal/rules"
)

func TestNewSessionHumanWhiteStartsAwaitingOrigin(t *testing.T) {
	s := New(chess.White, 2)
	if s.State() != StateAwaitingOrigin {
		t.Errorf("State() = %v, want %v", s.State(), StateAwaitingOrigin)
	}
}

func TestNewSessionHumanBlackStartsEngineToMove(t *testing.T) {
	s := New(chess.Black, 2)
	if s.State() != StateEngineToMove {
		t.Fatalf("State() = %v, want %v", s.State(), StateEngineToMove)
	}

	if m := s.PlayEngineTurn(); m == nil {
		t.Fatal("PlayEngineTurn returned nil on the opening move")
	}
	if s.State() != StateAwaitingOrigin {
		t.Errorf("State() after engine move = %v, want %v", s.State(), StateAwaitingOrigin)
	}
	if s.Board().MoveCount() != 1 {
		t.Errorf("MoveCount() = %d, want 1", s.Board().MoveCount())
	}
}

func TestClickOwnPieceSelectsOrigin(t *testing.T) {
	s := New(chess.White, 1)
	if !s.HandleClick(chess.E2) {
		t.Fatal("clicking own pawn did not change state")
	}
	if s.State() != StateAwaitingDestination {
		t.Errorf("State() = %v, want %v", s.State(), StateAwaitingDestination)
	}
	if snap := s.Snapshot(); snap.PendingOrigin != "e2" {
		t.Errorf("PendingOrigin = %q, want %q", snap.PendingOrigin, "e2")
	}
}

func TestClickEmptyOrOpponentSquareIsNoOp(t *testing.T) {
	s := New(chess.White, 1)

	if s.HandleClick(chess.E4) {
		t.Error("clicking an empty square changed state")
	}
	if s.HandleClick(chess.E7) {
		t.Error("clicking an opponent piece changed state")
	}
	if s.State() != StateAwaitingOrigin {
		t.Errorf("State() = %v, want %v", s.State(), StateAwaitingOrigin)
	}
}

func TestIllegalDestinationClearsSelection(t *testing.T) {
	s := New(chess.White, 1)
	before := s.Board().FEN()

	s.HandleClick(chess.E2)
	if !s.HandleClick(chess.E5) {
		t.Fatal("illegal destination click did not change state")
	}

	if s.State() != StateAwaitingOrigin {
		t.Errorf("State() = %v, want %v", s.State(), StateAwaitingOrigin)
	}
	if got := s.Board().FEN(); got != before {
		t.Errorf("position changed on illegal destination: %q -> %q", before, got)
	}
	if snap := s.Snapshot(); snap.PendingOrigin != "" {
		t.Errorf("PendingOrigin = %q, want empty", snap.PendingOrigin)
	}

	// The failed destination was not reinterpreted as a new origin: the
	// next click selects normally.
	if !s.HandleClick(chess.D2) {
		t.Error("selection after cleared destination failed")
	}
}

func TestLegalMoveHandsTurnToEngine(t *testing.T) {
	s := New(chess.White, 1)

	s.HandleClick(chess.E2)
	if !s.HandleClick(chess.E4) {
		t.Fatal("legal destination click did not change state")
	}
	if s.State() != StateEngineToMove {
		t.Fatalf("State() = %v, want %v", s.State(), StateEngineToMove)
	}

	snap := s.Snapshot()
	if snap.LastMoveFrom != "e2" || snap.LastMoveTo != "e4" {
		t.Errorf("last move = %s-%s, want e2-e4", snap.LastMoveFrom, snap.LastMoveTo)
	}

	// Clicks during the engine's turn are ignored.
	if s.HandleClick(chess.D2) {
		t.Error("click during engine turn changed state")
	}

	if m := s.PlayEngineTurn(); m == nil {
		t.Fatal("PlayEngineTurn returned nil")
	}
	if s.State() != StateAwaitingOrigin {
		t.Errorf("State() after engine reply = %v, want %v", s.State(), StateAwaitingOrigin)
	}
	if s.Board().MoveCount() != 2 {
		t.Errorf("MoveCount() = %d, want 2", s.Board().MoveCount())
	}
}

func TestHumanMatesEngine(t *testing.T) {
	// White mates with Ra1-a8.
	s, err := NewFromFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", chess.White, 1)
	if err != nil {
		t.Fatal(err)
	}

	s.HandleClick(chess.A1)
	s.HandleClick(chess.A8)

	if s.State() != StateGameOver {
		t.Fatalf("State() = %v, want %v", s.State(), StateGameOver)
	}
	outcome := s.Outcome()
	if outcome == nil {
		t.Fatal("Outcome() = nil after checkmate")
	}
	if outcome.Winner != "white" || outcome.Reason != rules.ReasonCheckmate {
		t.Errorf("Outcome = %+v, want white win by checkmate", outcome)
	}
}

func TestTerminalStateIsAbsorbing(t *testing.T) {
	// Black is already mated; the session opens in GameOver.
	s, err := NewFromFEN("R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", chess.Black, 2)
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateGameOver {
		t.Fatalf("State() = %v, want %v", s.State(), StateGameOver)
	}

	before := s.Board().FEN()
	for _, sq := range []chess.Square{chess.G8, chess.F7, chess.A8} {
		if s.HandleClick(sq) {
			t.Errorf("click on %v changed state after game over", sq)
		}
	}
	if m := s.PlayEngineTurn(); m != nil {
		t.Errorf("PlayEngineTurn = %v after game over, want nil", m)
	}
	if got := s.Board().FEN(); got != before {
		t.Errorf("position changed after game over: %q -> %q", before, got)
	}
}

// EngineToMove on an already-terminal position should not happen if
// transitions are followed, but it must degrade to GameOver, not search.
func TestEngineTurnOnTerminalPositionTolerated(t *testing.T) {
	board, err := rules.NewBoardFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	s := &Session{
		board:         board,
		humanColor:    chess.White,
		depth:         2,
		state:         StateEngineToMove,
		pendingOrigin: chess.NoSquare,
	}

	if m := s.PlayEngineTurn(); m != nil {
		t.Errorf("PlayEngineTurn = %v, want nil", m)
	}
	if s.State() != StateGameOver {
		t.Errorf("State() = %v, want %v", s.State(), StateGameOver)
	}
	if outcome := s.Outcome(); outcome == nil || outcome.Reason != rules.ReasonStalemate {
		t.Errorf("Outcome = %+v, want stalemate", outcome)
	}
}

func TestResign(t *testing.T) {
	s := New(chess.White, 1)
	s.Resign()

	if s.State() != StateGameOver {
		t.Fatalf("State() = %v, want %v", s.State(), StateGameOver)
	}
	outcome := s.Outcome()
	if outcome == nil || outcome.Winner != "black" || outcome.Reason != rules.ReasonResignation {
		t.Errorf("Outcome = %+v, want black win by resignation", outcome)
	}

	// Absorbing after resignation too.
	if s.HandleClick(chess.E2) {
		t.Error("click accepted after resignation")
	}
}

func TestSnapshotFields(t *testing.T) {
	s := New(chess.White, 2)
	snap := s.Snapshot()

	if snap.FEN != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1" {
		t.Errorf("unexpected FEN %q", snap.FEN)
	}
	if snap.Turn != "white" || snap.HumanColor != "white" {
		t.Errorf("Turn = %q, HumanColor = %q, want white/white", snap.Turn, snap.HumanColor)
	}
	if snap.Terminal || snap.Outcome != nil {
		t.Error("fresh session reported terminal")
	}
	if snap.LastMoveFrom != "" || snap.PendingOrigin != "" {
		t.Error("fresh session reported move highlights")
	}
}
