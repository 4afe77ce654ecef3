package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/wagervault/pkg/api/handlers"
	"github.com/cbodonnell/wagervault/pkg/api/middleware"
	authproviders "github.com/cbodonnell/wagervault/pkg/auth/providers"
	"github.com/cbodonnell/wagervault/pkg/escrow"
	"github.com/cbodonnell/wagervault/pkg/events"
	"github.com/cbodonnell/wagervault/pkg/log"
	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	AuthProvider authproviders.AuthProvider
	Manager      *escrow.Manager
	Events       *events.EventManager
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the API route table.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	authMiddleware := middleware.NewAuthMiddleware(opts.AuthProvider)

	router := mux.NewRouter()
	router.Handle("/games", authMiddleware(handlers.HandleCreateGame(opts.Manager))).Methods(http.MethodPost)
	router.Handle("/games", authMiddleware(handlers.HandleListGames(opts.Manager))).Methods(http.MethodGet)
	router.Handle("/games/{gameID}", authMiddleware(handlers.HandleGetGame(opts.Manager))).Methods(http.MethodGet)
	router.Handle("/games/{gameID}/join", authMiddleware(handlers.HandleJoinGame(opts.Manager))).Methods(http.MethodPost)
	router.Handle("/games/{gameID}/resolve", authMiddleware(handlers.HandleResolveGame(opts.Manager))).Methods(http.MethodPost)
	router.Handle("/games/{gameID}/dispute", authMiddleware(handlers.HandleOpenDispute(opts.Manager))).Methods(http.MethodPost)
	router.Handle("/games/{gameID}/admin/resolve", authMiddleware(handlers.HandleAdminResolve(opts.Manager))).Methods(http.MethodPost)
	router.HandleFunc("/events", handleEvents(opts.Events)).Methods(http.MethodGet)

	return router
}

// handleEvents streams platform signals over a websocket connection.
func handleEvents(eventManager *events.EventManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Error("Failed to accept websocket connection: %v", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "connection closed")

		feed := make(chan events.Event, 64)
		handlerID := eventManager.RegisterHandler(func(event events.Event) {
			select {
			case feed <- event:
			default:
				// slow consumers miss events rather than stall the fan-out
			}
		})
		defer eventManager.UnregisterHandler(handlerID)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case event := <-feed:
				if err := wsjson.Write(ctx, conn, event); err != nil {
					log.Debug("Failed to write event to websocket: %v", err)
					return
				}
			}
		}
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
