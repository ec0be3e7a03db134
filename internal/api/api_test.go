package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/towerduel/internal/api/response"
	"github.com/mcoot/towerduel/internal/factory"
	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/protocol"
	"github.com/mcoot/towerduel/internal/services/catalog"
	"github.com/mcoot/towerduel/internal/services/session"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// API tests are integration tests - use production factory with real random/clock
	testCtx, testCancel := context.WithCancel(context.Background())
	t.Cleanup(testCancel)
	app, err := factory.New(testCtx, factory.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	return &testServer{
		handler: app.Router(),
		app:     app,
	}
}

func (ts *testServer) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[response.Health](t, rr).Status)
}

func TestCatalog(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/catalog")
	require.Equal(t, http.StatusOK, rr.Code)

	cat := decode[response.Catalog](t, rr)
	assert.Equal(t, session.DefaultHandSize, cat.HandSize)
	assert.Len(t, cat.Units, catalog.Default().Len())
	assert.Equal(t, "Spooked", cat.Units[0].Name)
	assert.Equal(t, "😱", cat.Units[0].Emoji)
}

func TestStatusCountsConnectedUsers(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ts.app.Dispatcher.Handle(ctx, session.Connect{User: "alice"})
	ts.app.Dispatcher.Handle(ctx, session.Connect{User: "bob"})

	rr := ts.request(http.MethodGet, "/api/v1/status")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Equal(t, response.Status{Connected: 2, InLobby: 2}, decode[response.Status](t, rr))
}

func TestHistoryEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/battles/history")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.History](t, rr).Battles)
}

func TestHistoryListsArchivedBattles(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, ts.app.Storage.SaveBattleSummary(ctx, &model.BattleSummary{
			ID:        model.BattleID(id),
			Winner:    "alice",
			Loser:     "bob",
			Reason:    model.EndTowerDestroyed,
			StartedAt: start,
			EndedAt:   start.Add(time.Minute),
		}))
	}

	rr := ts.request(http.MethodGet, "/api/v1/battles/history?limit=2")
	require.Equal(t, http.StatusOK, rr.Code)

	history := decode[response.History](t, rr)
	require.Len(t, history.Battles, 2)
	assert.Equal(t, "b3", history.Battles[0].ID)
	assert.Equal(t, "b2", history.Battles[1].ID)
	assert.Equal(t, "1m0s", history.Battles[0].Duration)
}

func TestHistoryRejectsInvalidLimit(t *testing.T) {
	ts := newTestServer(t)

	for _, limit := range []string{"0", "-3", "lots"} {
		rr := ts.request(http.MethodGet, "/api/v1/battles/history?limit="+limit)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "limit=%s", limit)
		assert.Contains(t, rr.Body.String(), "INVALID_REQUEST")
	}
}

func TestBattleNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/battles/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "BATTLE_NOT_FOUND")
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/lobbies")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWebSocketUpgradeThroughMiddleware(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.app.Dispatcher.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	server := httptest.NewServer(ts.handler)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SetName","data":"Alice"}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.KindUserJoin, msg.Kind)
	assert.JSONEq(t, `"Alice"`, string(msg.Payload))
}
