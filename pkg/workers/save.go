package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/wagervault/pkg/escrow/types"
	"github.com/cbodonnell/wagervault/pkg/log"
	"github.com/cbodonnell/wagervault/pkg/registry"
	"github.com/cbodonnell/wagervault/pkg/repositories"
)

type SaveGameWorker struct {
	repository   repositories.Repository
	saveGameChan <-chan SaveGameRequest
	registry     *registry.Registry
	interval     time.Duration
}

type NewSaveGameWorkerOptions struct {
	Repository   repositories.Repository
	SaveGameChan <-chan SaveGameRequest
	Registry     *registry.Registry
	Interval     time.Duration
}

type SaveGameRequest struct {
	Game types.Game
}

// NewSaveGameWorker creates a new SaveGameWorker.
// The worker processes save requests from the escrow manager and
// periodically snapshots the registry to the repository.
func NewSaveGameWorker(opts NewSaveGameWorkerOptions) *SaveGameWorker {
	return &SaveGameWorker{
		repository:   opts.Repository,
		saveGameChan: opts.SaveGameChan,
		registry:     opts.Registry,
		interval:     opts.Interval,
	}
}

func (w *SaveGameWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case saveRequest := <-w.saveGameChan:
			w.saveGame(ctx, saveRequest.Game)
		case <-ticker.C:
			w.saveSnapshot(ctx)
		}
	}
}

func (w *SaveGameWorker) saveGame(ctx context.Context, game types.Game) {
	if err := w.repository.SaveGame(ctx, &game); err != nil {
		log.Error("Failed to save game %d: %v", game.ID, err)
	}
	if err := w.repository.SaveCounter(ctx, w.registry.NextID()); err != nil {
		log.Error("Failed to save counter: %v", err)
	}
}

func (w *SaveGameWorker) saveSnapshot(ctx context.Context) {
	for _, game := range w.registry.List() {
		if err := w.repository.SaveGame(ctx, &game); err != nil {
			log.Error("Failed to save game %d: %v", game.ID, err)
		}
	}
	if err := w.repository.SaveCounter(ctx, w.registry.NextID()); err != nil {
		log.Error("Failed to save counter: %v", err)
	}
}
