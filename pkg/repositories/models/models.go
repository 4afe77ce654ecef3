package models

import (
	"database/sql"
	"time"

	"github.com/cbodonnell/wagervault/pkg/custody"
	escrowtypes "github.com/cbodonnell/wagervault/pkg/escrow/types"
)

// Game is the storage row for a game record. Timestamps are stored
// as unix milliseconds.
type Game struct {
	ID         int64
	Player1    string
	Player2    sql.NullString
	Wager      int64
	Asset      string
	Status     int32
	CreatedAt  int64
	ResolvedAt sql.NullInt64
	Winner     sql.NullString
	Commitment []byte
}

func FromGame(game *escrowtypes.Game) *Game {
	row := &Game{
		ID:         game.ID,
		Player1:    game.Player1,
		Wager:      game.Wager,
		Asset:      string(game.Asset),
		Status:     int32(game.Status),
		CreatedAt:  game.CreatedAt.UnixMilli(),
		Commitment: game.Commitment,
	}
	if game.Player2 != "" {
		row.Player2 = sql.NullString{String: game.Player2, Valid: true}
	}
	if !game.ResolvedAt.IsZero() {
		row.ResolvedAt = sql.NullInt64{Int64: game.ResolvedAt.UnixMilli(), Valid: true}
	}
	if game.Winner != "" {
		row.Winner = sql.NullString{String: game.Winner, Valid: true}
	}
	return row
}

func (row *Game) ToGame() *escrowtypes.Game {
	game := &escrowtypes.Game{
		ID:         row.ID,
		Player1:    row.Player1,
		Wager:      row.Wager,
		Asset:      custody.Asset(row.Asset),
		Status:     escrowtypes.GameStatus(row.Status),
		CreatedAt:  time.UnixMilli(row.CreatedAt),
		Commitment: row.Commitment,
	}
	if row.Player2.Valid {
		game.Player2 = row.Player2.String
	}
	if row.ResolvedAt.Valid {
		game.ResolvedAt = time.UnixMilli(row.ResolvedAt.Int64)
	}
	if row.Winner.Valid {
		game.Winner = row.Winner.String
	}
	return game
}
