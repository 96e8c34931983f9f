package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Engine configuration bounds. Depth is deliberately small: the search is
// synchronous and runs on the request path.
const (
	DefaultSearchDepth = 2
	MinSearchDepth     = 1
	MaxSearchDepth     = 4
)

// GameRecord is the archive document written when a session finishes.
// Active sessions live in memory only; records exist so logged-in players
// can review past games.
type GameRecord struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	SessionID   string              `json:"sessionId" bson:"sessionId"`
	UserID      *primitive.ObjectID `json:"userId,omitempty" bson:"userId,omitempty"` // nil for anonymous players
	HumanColor  string              `json:"humanColor" bson:"humanColor"`
	EngineDepth int                 `json:"engineDepth" bson:"engineDepth"`
	Moves       []string            `json:"moves" bson:"moves"` // UCI notation, e.g. "e2e4"
	FinalFEN    string              `json:"finalFen" bson:"finalFen"`
	Winner      string              `json:"winner,omitempty" bson:"winner,omitempty"` // "white", "black", or empty for draw
	WinReason   string              `json:"winReason" bson:"winReason"`
	MoveCount   int                 `json:"moveCount" bson:"moveCount"`
	StartedAt   time.Time           `json:"startedAt" bson:"startedAt"`
	CompletedAt time.Time           `json:"completedAt" bson:"completedAt"`
}
