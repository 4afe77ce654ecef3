package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	authproviders "github.com/cbodonnell/wagervault/pkg/auth/providers"
	"github.com/cbodonnell/wagervault/pkg/custody"
	"github.com/cbodonnell/wagervault/pkg/escrow"
	escrowtypes "github.com/cbodonnell/wagervault/pkg/escrow/types"
	"github.com/cbodonnell/wagervault/pkg/events"
	"github.com/cbodonnell/wagervault/pkg/registry"
	"github.com/cbodonnell/wagervault/pkg/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server *httptest.Server
	ledger *custody.Ledger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ledger := custody.NewLedger()
	eventManager := events.NewEventManager()
	manager := escrow.NewManager(escrow.NewManagerOptions{
		Registry: registry.NewRegistry(),
		Custody:  ledger,
		Verifier: verify.NewCommitmentVerifier(),
		Events:   eventManager,
		Admin:    "admin",
	})

	authProvider := authproviders.NewStaticTokenProvider(map[string]string{
		"alice-token": "alice",
		"bob-token":   "bob",
		"admin-token": "admin",
	})

	router := NewRouter(NewAPIServerOptions{
		AuthProvider: authProvider,
		Manager:      manager,
		Events:       eventManager,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{
		server: server,
		ledger: ledger,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeGame(t *testing.T, resp *http.Response) escrowtypes.Game {
	t.Helper()
	defer resp.Body.Close()
	var game escrowtypes.Game
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&game))
	return game
}

func TestAPI_GameLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.ledger.Credit("alice", 100, custody.AssetNative)
	ts.ledger.Credit("bob", 100, custody.AssetNative)

	resp := ts.do(t, http.MethodPost, "/games", "alice-token", map[string]interface{}{
		"wager":    100,
		"asset":    "native",
		"attached": 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	game := decodeGame(t, resp)
	assert.Equal(t, int64(0), game.ID)
	assert.Equal(t, "alice", game.Player1)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/games/%d/join", game.ID), "bob-token", map[string]interface{}{
		"attached": 100,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	game = decodeGame(t, resp)
	assert.Equal(t, escrowtypes.GameStatusActive, game.Status)

	commitment := hex.EncodeToString(verify.Commitment("alice", "bob"))
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/games/%d/resolve", game.ID), "alice-token", map[string]interface{}{
		"winner":     "alice",
		"commitment": commitment,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	game = decodeGame(t, resp)
	assert.Equal(t, escrowtypes.GameStatusResolved, game.Status)
	assert.Equal(t, "alice", game.Winner)

	assert.Equal(t, int64(180), ts.ledger.Balance("alice", custody.AssetNative))
	assert.Equal(t, int64(20), ts.ledger.Balance("admin", custody.AssetNative))

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/games/%d", game.ID), "alice-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	ts.ledger.Credit("alice", 200, custody.AssetNative)
	ts.ledger.Credit("bob", 100, custody.AssetNative)

	t.Run("missing token is unauthorized", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/games", "", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown game is not found", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/games/99", "alice-token", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("zero wager is a bad request", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/games", "alice-token", map[string]interface{}{
			"wager": 0,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non-admin override is forbidden", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/games", "alice-token", map[string]interface{}{
			"wager":    100,
			"attached": 100,
		})
		game := decodeGame(t, resp)
		resp = ts.do(t, http.MethodPost, fmt.Sprintf("/games/%d/join", game.ID), "bob-token", map[string]interface{}{
			"attached": 100,
		})
		resp.Body.Close()

		resp = ts.do(t, http.MethodPost, fmt.Sprintf("/games/%d/admin/resolve", game.ID), "bob-token", map[string]interface{}{
			"winner": "bob",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ts.do(t, http.MethodPost, fmt.Sprintf("/games/%d/admin/resolve", game.ID), "admin-token", map[string]interface{}{
			"winner": "bob",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("dispute before timeout conflicts", func(t *testing.T) {
		ts := newTestServer(t)
		ts.ledger.Credit("alice", 100, custody.AssetNative)
		ts.ledger.Credit("bob", 100, custody.AssetNative)
		resp := ts.do(t, http.MethodPost, "/games", "alice-token", map[string]interface{}{
			"wager":    100,
			"attached": 100,
		})
		game := decodeGame(t, resp)
		resp = ts.do(t, http.MethodPost, fmt.Sprintf("/games/%d/join", game.ID), "bob-token", map[string]interface{}{
			"attached": 100,
		})
		resp.Body.Close()

		resp = ts.do(t, http.MethodPost, fmt.Sprintf("/games/%d/dispute", game.ID), "alice-token", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}
