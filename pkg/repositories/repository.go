package repositories

import (
	"context"

	escrowtypes "github.com/cbodonnell/wagervault/pkg/escrow/types"
)

type Repository interface {
	Close(ctx context.Context) error
	SaveGame(ctx context.Context, game *escrowtypes.Game) error
	GetGame(ctx context.Context, id int64) (*escrowtypes.Game, error)
	ListGames(ctx context.Context) ([]*escrowtypes.Game, error)
	// SaveCounter persists the identifier allocator position so burned
	// identifiers are never reused across restarts.
	SaveCounter(ctx context.Context, next int64) error
	LoadCounter(ctx context.Context) (int64, error)
}
