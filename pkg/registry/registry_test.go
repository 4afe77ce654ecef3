package registry

import (
	"testing"
	"time"

	"github.com/cbodonnell/wagervault/pkg/escrow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Allocate(t *testing.T) {
	r := NewRegistry()
	for want := int64(0); want < 5; want++ {
		assert.Equal(t, want, r.Allocate())
	}
	assert.Equal(t, int64(5), r.NextID())
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(0)
	assert.True(t, types.IsNotFound(err))
}

func TestRegistry_UpdateLeavesRecordOnError(t *testing.T) {
	r := NewRegistry()
	id := r.Allocate()
	r.Insert(&types.Game{ID: id, Player1: "alice", Wager: 100})

	err := r.Update(id, func(g *types.Game) error {
		g.Player2 = "bob"
		return &types.ErrGameNotActive{ID: id}
	})
	require.Error(t, err)

	game, err := r.Get(id)
	require.NoError(t, err)
	assert.Empty(t, game.Player2)
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	id := r.Allocate()
	r.Insert(&types.Game{ID: id, Player1: "alice", Wager: 100})

	game, err := r.Get(id)
	require.NoError(t, err)
	game.Player1 = "mallory"

	stored, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Player1)
}

func TestRegistry_Seed(t *testing.T) {
	r := NewRegistry()
	games := []*types.Game{
		{ID: 0, Player1: "alice", Wager: 100, CreatedAt: time.Unix(1700000000, 0)},
		{ID: 3, Player1: "bob", Wager: 200, CreatedAt: time.Unix(1700000100, 0)},
	}

	t.Run("counter advances past the highest id", func(t *testing.T) {
		r := NewRegistry()
		r.Seed(games, 0)
		assert.Equal(t, int64(4), r.NextID())
	})

	t.Run("persisted counter wins when larger", func(t *testing.T) {
		r := NewRegistry()
		r.Seed(games, 10)
		assert.Equal(t, int64(10), r.NextID())
	})

	r.Seed(games, 0)
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, int64(0), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)
}
