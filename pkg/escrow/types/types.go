package types

import (
	"time"

	"github.com/cbodonnell/wagervault/pkg/custody"
)

type GameStatus int

const (
	// GameStatusCreated means player1 has deposited and the game is
	// waiting for a second player.
	GameStatusCreated GameStatus = iota
	// GameStatusActive means both stakes are locked in custody.
	GameStatusActive
	// GameStatusResolved is terminal; the payout has been issued.
	GameStatusResolved
)

func (s GameStatus) String() string {
	switch s {
	case GameStatusCreated:
		return "created"
	case GameStatusActive:
		return "active"
	case GameStatusResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Game is a single two-party wager. One stake of Wager is locked per
// participant; the full pot is paid out, minus the platform fee, when
// the game resolves.
type Game struct {
	ID         int64         `json:"id"`
	Player1    string        `json:"player1"`
	Player2    string        `json:"player2,omitempty"`
	Wager      int64         `json:"wager"`
	Asset      custody.Asset `json:"asset"`
	Status     GameStatus    `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	ResolvedAt time.Time     `json:"resolvedAt,omitempty"`
	Winner     string        `json:"winner,omitempty"`
	Commitment []byte        `json:"commitment,omitempty"`
}

// IsParticipant returns true if identity is one of the two players.
func (g *Game) IsParticipant(identity string) bool {
	return identity == g.Player1 || (g.Player2 != "" && identity == g.Player2)
}

// Dispute is the escalation record produced by opening a dispute.
// It signals that a participant wants an admin to look at the game;
// it does not change game state.
type Dispute struct {
	Ref      string    `json:"ref"`
	GameID   int64     `json:"gameId"`
	OpenedBy string    `json:"openedBy"`
	OpenedAt time.Time `json:"openedAt"`
}
