package registry

import (
	"sort"
	"sync"

	"github.com/cbodonnell/wagervault/pkg/escrow/types"
)

// Registry owns the game records and the identifier allocator.
// Identifiers start at 0, increment by 1, and are never reused,
// even when the operation that allocated one fails later on.
type Registry struct {
	lock   sync.RWMutex
	games  map[int64]*types.Game
	nextID int64
}

func NewRegistry() *Registry {
	return &Registry{
		games: make(map[int64]*types.Game),
	}
}

// Allocate returns the next game identifier and advances the counter.
func (r *Registry) Allocate() int64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	id := r.nextID
	r.nextID++
	return id
}

// NextID returns the counter value without advancing it.
func (r *Registry) NextID() int64 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.nextID
}

// Insert stores a new game record under its identifier.
func (r *Registry) Insert(game *types.Game) {
	r.lock.Lock()
	defer r.lock.Unlock()
	copy := *game
	r.games[game.ID] = &copy
}

// Get returns a copy of the game record.
func (r *Registry) Get(id int64) (types.Game, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	game, ok := r.games[id]
	if !ok {
		return types.Game{}, &types.ErrNotFound{ID: id}
	}
	return *game, nil
}

// Update applies mutate to the stored record under the write lock.
// If mutate returns an error the record is left untouched.
func (r *Registry) Update(id int64, mutate func(game *types.Game) error) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	game, ok := r.games[id]
	if !ok {
		return &types.ErrNotFound{ID: id}
	}
	staged := *game
	if err := mutate(&staged); err != nil {
		return err
	}
	*game = staged
	return nil
}

// Restore overwrites the stored record with a previous snapshot.
// Used to roll back a failed all-or-nothing operation.
func (r *Registry) Restore(snapshot types.Game) {
	r.lock.Lock()
	defer r.lock.Unlock()
	copy := snapshot
	r.games[snapshot.ID] = &copy
}

// List returns copies of all game records ordered by identifier.
func (r *Registry) List() []types.Game {
	r.lock.RLock()
	defer r.lock.RUnlock()
	games := make([]types.Game, 0, len(r.games))
	for _, game := range r.games {
		games = append(games, *game)
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].ID < games[j].ID
	})
	return games
}

// Seed loads persisted games and the identifier counter, typically at
// startup. The counter never moves backwards so identifiers burned by
// failed creations stay burned across restarts.
func (r *Registry) Seed(games []*types.Game, nextID int64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, game := range games {
		copy := *game
		r.games[game.ID] = &copy
		if game.ID >= r.nextID {
			r.nextID = game.ID + 1
		}
	}
	if nextID > r.nextID {
		r.nextID = nextID
	}
}
