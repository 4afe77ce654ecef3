package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/wagervault/pkg/api"
	authproviders "github.com/cbodonnell/wagervault/pkg/auth/providers"
	"github.com/cbodonnell/wagervault/pkg/custody"
	"github.com/cbodonnell/wagervault/pkg/escrow"
	"github.com/cbodonnell/wagervault/pkg/events"
	"github.com/cbodonnell/wagervault/pkg/log"
	"github.com/cbodonnell/wagervault/pkg/queue"
	"github.com/cbodonnell/wagervault/pkg/registry"
	"github.com/cbodonnell/wagervault/pkg/repositories"
	"github.com/cbodonnell/wagervault/pkg/verify"
	"github.com/cbodonnell/wagervault/pkg/version"
	"github.com/cbodonnell/wagervault/pkg/workers"
)

func main() {
	port := flag.Int("port", 8880, "API port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	admin := flag.String("admin", "", "Admin/fee-recipient identity")
	repositoryType := flag.String("repository-type", "sqlite", "Repository type (postgres or sqlite)")
	sqlitePath := flag.String("sqlite-path", "wagervault.db", "Path to the SQLite database file")
	migrationsPath := flag.String("migrations-path", "migrations/sqlite", "Path to the SQLite migrations directory")
	authProviderType := flag.String("auth-provider", "static", "Auth provider type (firebase or static)")
	firebaseProjectID := flag.String("firebase-project-id", "", "Firebase project ID")
	journalPath := flag.String("journal-path", "wagervault-events.jsonl.zst", "Path to the event journal file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	if *admin == "" {
		panic("admin identity must be set")
	}

	log.Info("Starting server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repository repositories.Repository
	switch *repositoryType {
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			panic("DATABASE_URL environment variable must be set")
		}
		repository = repositories.NewPostgresRepository(ctx, connStr)
	case "sqlite":
		repository, err = repositories.NewSQLiteRepository(ctx, *sqlitePath, *migrationsPath)
		if err != nil {
			panic(fmt.Sprintf("Failed to create sqlite repository: %v", err))
		}
	default:
		panic(fmt.Sprintf("Unknown repository type: %s", *repositoryType))
	}
	defer repository.Close(ctx)

	gameRegistry := registry.NewRegistry()
	if err := seedRegistry(ctx, gameRegistry, repository); err != nil {
		panic(fmt.Sprintf("Failed to seed registry: %v", err))
	}

	eventManager := events.NewEventManager()

	saveGameChannelSize := 100
	saveGameChan := make(chan workers.SaveGameRequest, saveGameChannelSize)

	saveLoopInterval := 10 * time.Second
	saveGameWorker := workers.NewSaveGameWorker(workers.NewSaveGameWorkerOptions{
		Repository:   repository,
		SaveGameChan: saveGameChan,
		Registry:     gameRegistry,
		Interval:     saveLoopInterval,
	})
	go saveGameWorker.Start(ctx)

	journalInterval := 5 * time.Second
	journalWorker, err := workers.NewJournalWorker(workers.NewJournalWorkerOptions{
		EventQueue: queue.NewInMemoryQueue(),
		Path:       *journalPath,
		Interval:   journalInterval,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create journal worker: %v", err))
	}
	eventManager.RegisterHandler(journalWorker.Handler())
	go journalWorker.Start(ctx)

	manager := escrow.NewManager(escrow.NewManagerOptions{
		Registry: gameRegistry,
		Custody:  custody.NewLedger(),
		Verifier: verify.NewCommitmentVerifier(),
		Events:   eventManager,
		SaveChan: saveGameChan,
		Admin:    *admin,
	})

	var authProvider authproviders.AuthProvider
	switch *authProviderType {
	case "firebase":
		apiKey := os.Getenv("FIREBASE_API_KEY")
		if apiKey == "" {
			panic("FIREBASE_API_KEY environment variable must be set")
		}
		authProvider, err = authproviders.NewFirebaseAuthProvider(ctx, *firebaseProjectID, apiKey)
		if err != nil {
			panic(fmt.Sprintf("Failed to create firebase auth provider: %v", err))
		}
	case "static":
		tokens := map[string]string{}
		if token := os.Getenv("ADMIN_TOKEN"); token != "" {
			tokens[token] = *admin
		}
		provider := authproviders.NewStaticTokenProvider(tokens)
		authProvider = provider
		log.Warn("Using static token auth provider, do not use in production")
	default:
		panic(fmt.Sprintf("Unknown auth provider type: %s", *authProviderType))
	}

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         *port,
		AuthProvider: authProvider,
		Manager:      manager,
		Events:       eventManager,
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
}

// seedRegistry loads persisted games and the identifier counter so a
// restarted server continues where it left off.
func seedRegistry(ctx context.Context, gameRegistry *registry.Registry, repository repositories.Repository) error {
	games, err := repository.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list games: %v", err)
	}
	next, err := repository.LoadCounter(ctx)
	if err != nil {
		return fmt.Errorf("failed to load counter: %v", err)
	}
	gameRegistry.Seed(games, next)
	log.Info("Seeded registry with %d games, next id %d", len(games), gameRegistry.NextID())
	return nil
}
