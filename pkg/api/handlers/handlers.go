package handlers

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cbodonnell/wagervault/pkg/api/middleware"
	"github.com/cbodonnell/wagervault/pkg/custody"
	"github.com/cbodonnell/wagervault/pkg/escrow"
	escrowtypes "github.com/cbodonnell/wagervault/pkg/escrow/types"
	"github.com/cbodonnell/wagervault/pkg/log"
	"github.com/gorilla/mux"
)

type CreateGameRequest struct {
	Wager    int64  `json:"wager"`
	Asset    string `json:"asset"`
	Attached int64  `json:"attached"`
}

type JoinGameRequest struct {
	Attached int64 `json:"attached"`
}

type ResolveGameRequest struct {
	Winner     string `json:"winner"`
	Commitment string `json:"commitment"`
}

type AdminResolveRequest struct {
	Winner string `json:"winner"`
}

func HandleCreateGame(manager *escrow.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.CallerIdentity(r)
		if !ok {
			log.Error("failed to get caller identity from context")
			http.Error(w, "Failed to get caller identity", http.StatusInternalServerError)
			return
		}

		var req CreateGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		asset := custody.Asset(req.Asset)
		if asset == "" {
			asset = custody.AssetNative
		}

		game, err := manager.CreateGame(r.Context(), caller, req.Wager, asset, req.Attached)
		if err != nil {
			writeEscrowError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, game)
	}
}

func HandleJoinGame(manager *escrow.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.CallerIdentity(r)
		if !ok {
			log.Error("failed to get caller identity from context")
			http.Error(w, "Failed to get caller identity", http.StatusInternalServerError)
			return
		}

		gameID, err := parseGameID(r)
		if err != nil {
			http.Error(w, "Invalid game ID", http.StatusBadRequest)
			return
		}

		var req JoinGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		game, err := manager.JoinGame(r.Context(), gameID, caller, req.Attached)
		if err != nil {
			writeEscrowError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, game)
	}
}

func HandleResolveGame(manager *escrow.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := parseGameID(r)
		if err != nil {
			http.Error(w, "Invalid game ID", http.StatusBadRequest)
			return
		}

		var req ResolveGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		commitment, err := hex.DecodeString(req.Commitment)
		if err != nil {
			http.Error(w, "Commitment must be hex encoded", http.StatusBadRequest)
			return
		}

		game, err := manager.ResolveGame(r.Context(), gameID, req.Winner, commitment)
		if err != nil {
			writeEscrowError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, game)
	}
}

func HandleOpenDispute(manager *escrow.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.CallerIdentity(r)
		if !ok {
			log.Error("failed to get caller identity from context")
			http.Error(w, "Failed to get caller identity", http.StatusInternalServerError)
			return
		}

		gameID, err := parseGameID(r)
		if err != nil {
			http.Error(w, "Invalid game ID", http.StatusBadRequest)
			return
		}

		dispute, err := manager.OpenDispute(r.Context(), gameID, caller)
		if err != nil {
			writeEscrowError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, dispute)
	}
}

func HandleAdminResolve(manager *escrow.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.CallerIdentity(r)
		if !ok {
			log.Error("failed to get caller identity from context")
			http.Error(w, "Failed to get caller identity", http.StatusInternalServerError)
			return
		}

		gameID, err := parseGameID(r)
		if err != nil {
			http.Error(w, "Invalid game ID", http.StatusBadRequest)
			return
		}

		var req AdminResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		game, err := manager.AdminResolve(r.Context(), gameID, caller, req.Winner)
		if err != nil {
			writeEscrowError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, game)
	}
}

func HandleGetGame(manager *escrow.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := parseGameID(r)
		if err != nil {
			http.Error(w, "Invalid game ID", http.StatusBadRequest)
			return
		}

		game, err := manager.GetGame(gameID)
		if err != nil {
			writeEscrowError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, game)
	}
}

func HandleListGames(manager *escrow.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, manager.ListGames())
	}
}

func parseGameID(r *http.Request) (int64, error) {
	vars := mux.Vars(r)
	return strconv.ParseInt(vars["gameID"], 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

// writeEscrowError maps escrow error kinds to HTTP status codes.
func writeEscrowError(w http.ResponseWriter, err error) {
	switch {
	case escrowtypes.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case escrowtypes.IsUnauthorized(err):
		http.Error(w, err.Error(), http.StatusForbidden)
	case escrowtypes.IsInvalidWager(err), escrowtypes.IsInvalidResolution(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case escrowtypes.IsGameNotActive(err), escrowtypes.IsDisputeTimeoutNotReached(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case escrowtypes.IsTransferFailed(err):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		log.Error("unexpected error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
