package escrow

import (
	"context"
	"sync"
	"time"

	"github.com/cbodonnell/wagervault/pkg/custody"
	"github.com/cbodonnell/wagervault/pkg/escrow/types"
	"github.com/cbodonnell/wagervault/pkg/events"
	"github.com/cbodonnell/wagervault/pkg/log"
	"github.com/cbodonnell/wagervault/pkg/registry"
	"github.com/cbodonnell/wagervault/pkg/verify"
	"github.com/cbodonnell/wagervault/pkg/workers"
	"github.com/google/uuid"
)

const (
	// FeePercent is the platform's cut of the pot, fixed at build time.
	FeePercent = 10
	// DisputeTimeout is how long after creation a participant must wait
	// before opening a dispute.
	DisputeTimeout = 2 * time.Hour
)

// Manager drives the game lifecycle: creation, joining, resolution and
// payout. Every public operation is all-or-nothing: it either completes
// fully or leaves all state exactly as before the call.
type Manager struct {
	lock     sync.Mutex
	inflight map[int64]struct{}

	registry *registry.Registry
	custody  custody.Adapter
	verifier verify.Verifier
	events   *events.EventManager
	saveChan chan<- workers.SaveGameRequest
	admin    string
	now      func() time.Time
}

type NewManagerOptions struct {
	Registry *registry.Registry
	Custody  custody.Adapter
	Verifier verify.Verifier
	Events   *events.EventManager
	SaveChan chan<- workers.SaveGameRequest
	// Admin is the privileged fee-recipient identity, bound at
	// construction and immutable afterwards.
	Admin string
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

func NewManager(opts NewManagerOptions) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		inflight: make(map[int64]struct{}),
		registry: opts.Registry,
		custody:  opts.Custody,
		verifier: opts.Verifier,
		events:   opts.Events,
		saveChan: opts.SaveChan,
		admin:    opts.Admin,
		now:      now,
	}
}

// Admin returns the admin/fee-recipient identity.
func (m *Manager) Admin() string {
	return m.admin
}

// GetGame returns the game record for the identifier.
func (m *Manager) GetGame(id int64) (types.Game, error) {
	return m.registry.Get(id)
}

// ListGames returns all game records ordered by identifier.
func (m *Manager) ListGames() []types.Game {
	return m.registry.List()
}

// CreateGame locks the creator's stake and registers a new game in the
// Created state. attached is the value attached to the call; for the
// native asset it must equal the wager exactly. The allocated identifier
// is burned if the deposit fails.
func (m *Manager) CreateGame(ctx context.Context, creator string, wager int64, asset custody.Asset, attached int64) (types.Game, error) {
	if wager <= 0 {
		return types.Game{}, &types.ErrInvalidWager{Reason: "wager must be positive"}
	}
	if asset.IsNative() && attached != wager {
		return types.Game{}, &types.ErrInvalidWager{Reason: "attached value must equal the wager"}
	}

	id := m.registry.Allocate()
	if err := m.enter(id); err != nil {
		return types.Game{}, err
	}
	defer m.exit(id)

	if err := m.custody.Deposit(ctx, creator, wager, asset); err != nil {
		return types.Game{}, &types.ErrTransferFailed{Cause: err}
	}

	game := types.Game{
		ID:        id,
		Player1:   creator,
		Wager:     wager,
		Asset:     asset,
		Status:    types.GameStatusCreated,
		CreatedAt: m.now(),
	}
	m.registry.Insert(&game)
	m.save(game)
	m.events.Trigger(events.Event{
		Type:      events.EventTypeGameCreated,
		GameID:    game.ID,
		Timestamp: game.CreatedAt,
		Payload: events.GameCreated{
			Player1: creator,
			Wager:   wager,
			Asset:   asset,
		},
	})
	log.Info("Game %d created by %s with wager %d %s", game.ID, creator, wager, asset)
	return game, nil
}

// JoinGame locks the joiner's stake at the stored wager and activates
// the game.
func (m *Manager) JoinGame(ctx context.Context, id int64, joiner string, attached int64) (types.Game, error) {
	if err := m.enter(id); err != nil {
		return types.Game{}, err
	}
	defer m.exit(id)

	game, err := m.registry.Get(id)
	if err != nil {
		return types.Game{}, err
	}
	if game.Status != types.GameStatusCreated {
		return types.Game{}, &types.ErrGameNotActive{ID: id}
	}
	if game.Asset.IsNative() && attached != game.Wager {
		return types.Game{}, &types.ErrInvalidWager{Reason: "attached value must equal the wager"}
	}

	if err := m.custody.Deposit(ctx, joiner, game.Wager, game.Asset); err != nil {
		return types.Game{}, &types.ErrTransferFailed{Cause: err}
	}

	if err := m.registry.Update(id, func(g *types.Game) error {
		g.Player2 = joiner
		g.Status = types.GameStatusActive
		return nil
	}); err != nil {
		return types.Game{}, err
	}

	game, _ = m.registry.Get(id)
	m.save(game)
	m.events.Trigger(events.Event{
		Type:      events.EventTypeGameJoined,
		GameID:    id,
		Timestamp: m.now(),
		Payload: events.GameJoined{
			Player2: joiner,
		},
	})
	log.Info("Game %d joined by %s", id, joiner)
	return game, nil
}

// ResolveGame is the cooperative resolution path: the commitment must
// satisfy the pluggable verifier, then the payout is issued exactly
// once. Re-invocation on a resolved game fails with GameNotActive.
func (m *Manager) ResolveGame(ctx context.Context, id int64, winner string, commitment []byte) (types.Game, error) {
	if err := m.enter(id); err != nil {
		return types.Game{}, err
	}
	defer m.exit(id)

	game, err := m.registry.Get(id)
	if err != nil {
		return types.Game{}, err
	}
	if game.Status != types.GameStatusActive {
		return types.Game{}, &types.ErrGameNotActive{ID: id}
	}
	if !game.IsParticipant(winner) {
		return types.Game{}, &types.ErrInvalidResolution{Reason: "winner is not a participant"}
	}
	if !m.verifier.Verify(game, winner, commitment) {
		return types.Game{}, &types.ErrInvalidResolution{Reason: "state commitment verification failed"}
	}

	return m.payout(ctx, id, winner, commitment)
}

// OpenDispute signals escalation for a game whose dispute timeout has
// elapsed. It changes no game state and triggers no payout.
func (m *Manager) OpenDispute(ctx context.Context, id int64, caller string) (types.Dispute, error) {
	game, err := m.registry.Get(id)
	if err != nil {
		return types.Dispute{}, err
	}
	if !game.IsParticipant(caller) {
		return types.Dispute{}, &types.ErrUnauthorized{Caller: caller}
	}
	if game.Status == types.GameStatusResolved {
		return types.Dispute{}, &types.ErrGameNotActive{ID: id}
	}
	now := m.now()
	if now.Sub(game.CreatedAt) < DisputeTimeout {
		return types.Dispute{}, &types.ErrDisputeTimeoutNotReached{ID: id}
	}

	dispute := types.Dispute{
		Ref:      uuid.NewString(),
		GameID:   id,
		OpenedBy: caller,
		OpenedAt: now,
	}
	m.events.Trigger(events.Event{
		Type:      events.EventTypeDisputeOpened,
		GameID:    id,
		Timestamp: now,
		Payload: events.DisputeOpened{
			Ref:      dispute.Ref,
			OpenedBy: caller,
		},
	})
	log.Info("Dispute %s opened for game %d by %s", dispute.Ref, id, caller)
	return dispute, nil
}

// AdminResolve is the privileged override path: it bypasses commitment
// verification entirely and issues the payout exactly once.
func (m *Manager) AdminResolve(ctx context.Context, id int64, caller string, winner string) (types.Game, error) {
	if caller != m.admin {
		return types.Game{}, &types.ErrUnauthorized{Caller: caller}
	}
	if err := m.enter(id); err != nil {
		return types.Game{}, err
	}
	defer m.exit(id)

	game, err := m.registry.Get(id)
	if err != nil {
		return types.Game{}, err
	}
	if game.Status != types.GameStatusActive {
		return types.Game{}, &types.ErrGameNotActive{ID: id}
	}
	if !game.IsParticipant(winner) {
		return types.Game{}, &types.ErrInvalidResolution{Reason: "winner is not a participant"}
	}

	resolved, err := m.payout(ctx, id, winner, nil)
	if err != nil {
		return types.Game{}, err
	}
	m.events.Trigger(events.Event{
		Type:      events.EventTypeAdminResolutionApplied,
		GameID:    id,
		Timestamp: resolved.ResolvedAt,
		Payload: events.AdminResolutionApplied{
			Admin:  caller,
			Winner: winner,
		},
	})
	log.Info("Game %d resolved by admin override, winner %s", id, winner)
	return resolved, nil
}

// payout marks the game resolved and issues the two outbound transfers.
// The record is mutated before any transfer so a reentrant call on the
// same game observes a resolved record and is rejected; either transfer
// failing rolls the record back to its pre-call state.
func (m *Manager) payout(ctx context.Context, id int64, winner string, commitment []byte) (types.Game, error) {
	var prev types.Game
	if err := m.registry.Update(id, func(g *types.Game) error {
		if g.Status == types.GameStatusResolved {
			return &types.ErrGameNotActive{ID: id}
		}
		prev = *g
		g.Status = types.GameStatusResolved
		g.Winner = winner
		g.ResolvedAt = m.now()
		g.Commitment = commitment
		return nil
	}); err != nil {
		return types.Game{}, err
	}

	pot := prev.Wager * 2
	fee := pot * FeePercent / 100
	net := pot - fee

	// transfers run with no locks held; a hostile recipient calling back
	// into the manager finds the record already resolved
	if err := m.custody.Payout(ctx, winner, net, prev.Asset); err != nil {
		m.registry.Restore(prev)
		return types.Game{}, &types.ErrTransferFailed{Cause: err}
	}
	// small pots floor the fee to zero; skip the transfer rather than
	// push a zero amount the adapter would reject
	if fee > 0 {
		if err := m.custody.Payout(ctx, m.admin, fee, prev.Asset); err != nil {
			m.registry.Restore(prev)
			return types.Game{}, &types.ErrTransferFailed{Cause: err}
		}
	}

	game, err := m.registry.Get(id)
	if err != nil {
		return types.Game{}, err
	}
	m.save(game)
	m.events.Trigger(events.Event{
		Type:      events.EventTypeGameResolved,
		GameID:    id,
		Timestamp: game.ResolvedAt,
		Payload: events.GameResolved{
			Winner: winner,
			Net:    net,
			Fee:    fee,
		},
	})
	log.Info("Game %d resolved, %d to %s and %d to %s", id, net, winner, fee, m.admin)
	return game, nil
}

// enter acquires the per-game execution guard. A nested call on the
// same identifier is rejected rather than blocked so that reentrancy
// through an outbound transfer cannot deadlock or re-pay.
func (m *Manager) enter(id int64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.inflight[id]; ok {
		return &types.ErrGameNotActive{ID: id}
	}
	m.inflight[id] = struct{}{}
	return nil
}

func (m *Manager) exit(id int64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.inflight, id)
}

func (m *Manager) save(game types.Game) {
	if m.saveChan == nil {
		return
	}
	select {
	case m.saveChan <- workers.SaveGameRequest{Game: game}:
	default:
		log.Warn("Save channel full, dropping save request for game %d", game.ID)
	}
}
