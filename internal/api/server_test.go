package api_test

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/towerduel/internal/api"
	"github.com/mcoot/towerduel/internal/protocol"
	"github.com/mcoot/towerduel/internal/testutil"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := api.DefaultServerConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.Positive(t, cfg.ReadHeaderTimeout)
	assert.Less(t, cfg.ReadHeaderTimeout, cfg.ReadTimeout)
	assert.Positive(t, cfg.IdleTimeout)
	assert.Equal(t, ":8080", api.NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger()).Addr())
}

func TestServerKeepsWebsocketsPastWriteTimeout(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.app.Dispatcher.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	cfg := api.DefaultServerConfig()
	cfg.WriteTimeout = 50 * time.Millisecond
	server := api.NewServer(ts.handler, cfg, testutil.NopLogger())
	server.OnShutdown(ts.app.WebSocket.CloseAll)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- server.Serve(ln) }()
	require.Eventually(t, func() bool {
		return server.Addr() == ln.Addr().String()
	}, time.Second, 5*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	time.Sleep(4 * cfg.WriteTimeout)

	frame, err := protocol.EncodeCommand(protocol.CmdSetName, "Alice")
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.KindUserJoin, msg.Kind)

	// Shutdown closes the socket through the registered hook
	require.NoError(t, server.Shutdown(context.Background()))
	require.NoError(t, <-served)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
