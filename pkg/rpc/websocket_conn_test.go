package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SIVIRA/unwallet-provider-js/pkg/rpc"
)

func TestWebsocketConn_Handshake(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{connectionID: "conn-1"})

	conn := rpc.NewWebsocketConn(server.wsURL(), rpc.DefaultWebsocketConnConfig, nil)
	assert.Equal(t, rpc.StateDisconnected, conn.Session().State)
	assert.False(t, conn.IsConnected())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, conn.Connect(ctx))
	defer conn.Close()

	assert.True(t, conn.IsConnected())
	assert.Equal(t, rpc.Session{ConnectionID: "conn-1", State: rpc.StateConnected}, conn.Session())

	// Connecting again reuses the session.
	require.NoError(t, conn.Connect(ctx))
	assert.Equal(t, int32(1), server.handshakes.Load())
}

func TestWebsocketConn_ForwardsMessages(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{connectionID: "conn-1"})
	conn := rpc.NewWebsocketConn(server.wsURL(), rpc.DefaultWebsocketConnConfig, nil)

	received := make(chan rpc.Message, 10)
	conn.OnMessage(func(msg rpc.Message) {
		received <- msg
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Connect(ctx))
	defer conn.Close()

	sc := server.nextConn(t)
	sc.writeText(t, `not json`)
	sc.writeText(t, `{"data":{"value":"0x1"}}`)
	sc.writeText(t, `{"type":"signature","data":{"value":"0xabc"}}`)
	sc.writeText(t, `{"type":"connectionID","data":{"value":"conn-2"}}`)
	sc.writeText(t, `{"type":"accounts","data":{"value":null}}`)

	msg := receiveMessage(t, received)
	assert.Equal(t, rpc.MessageTypeSignature, msg.Type)
	var sig string
	require.NoError(t, msg.DecodeValue(&sig))
	assert.Equal(t, "0xabc", sig)
	assert.False(t, msg.IsCancel())

	msg = receiveMessage(t, received)
	assert.Equal(t, rpc.MessageTypeAccounts, msg.Type)
	assert.True(t, msg.IsCancel())
	assert.ErrorIs(t, msg.DecodeValue(&sig), rpc.ErrEmptyValue)

	// The second connectionID message replaced the id without being forwarded.
	assert.Equal(t, "conn-2", conn.Session().ConnectionID)
	assert.Empty(t, received)
}

func TestWebsocketConn_ServerClose(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{connectionID: "conn-1"})
	conn := rpc.NewWebsocketConn(server.wsURL(), rpc.DefaultWebsocketConnConfig, nil)

	disconnected := make(chan error, 1)
	conn.OnDisconnect(func(err error) {
		disconnected <- err
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Connect(ctx))

	sc := server.nextConn(t)
	sc.conn.Close()

	select {
	case err := <-disconnected:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("disconnect handler was not invoked")
	}

	assert.False(t, conn.IsConnected())
	assert.Equal(t, rpc.Session{State: rpc.StateDisconnected}, conn.Session())
	assert.ErrorIs(t, conn.Send(ctx, rpc.Request{Action: rpc.ActionGetConnectionID}), rpc.ErrNotConnected)

	// A fresh Connect starts a new session.
	require.NoError(t, conn.Connect(ctx))
	defer conn.Close()
	assert.True(t, conn.IsConnected())
	assert.Equal(t, int32(2), server.handshakes.Load())
}

func TestWebsocketConn_CloseSkipsDisconnectHandler(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{connectionID: "conn-1"})
	conn := rpc.NewWebsocketConn(server.wsURL(), rpc.DefaultWebsocketConnConfig, nil)

	var called atomic.Bool
	conn.OnDisconnect(func(err error) {
		called.Store(true)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Connect(ctx))

	require.NoError(t, conn.Close())
	assert.False(t, conn.IsConnected())
	assert.Equal(t, rpc.StateDisconnected, conn.Session().State)

	time.Sleep(100 * time.Millisecond)
	assert.False(t, called.Load())

	// Closing twice is harmless.
	require.NoError(t, conn.Close())
}

func TestWebsocketConn_DialFailure(t *testing.T) {
	t.Parallel()

	conn := rpc.NewWebsocketConn("ws://invalid-url-that-does-not-exist:12345", rpc.DefaultWebsocketConnConfig, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := conn.Connect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, rpc.ErrDialingWebsocket)
	assert.Contains(t, err.Error(), "error dialing websocket server")
	assert.Equal(t, rpc.StateDisconnected, conn.Session().State)
}

func TestWebsocketConn_HandshakeTimeout(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{skipHandshake: true})

	cfg := rpc.DefaultWebsocketConnConfig
	cfg.HandshakeTimeout = 200 * time.Millisecond
	conn := rpc.NewWebsocketConn(server.wsURL(), cfg, nil)

	err := conn.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, rpc.ErrHandshakeTimeout)
	assert.ErrorIs(t, err, rpc.ErrHandshake)
	assert.Equal(t, rpc.StateDisconnected, conn.Session().State)
}

func TestWebsocketConn_ClosedDuringHandshake(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{closeOnHandshake: true})
	conn := rpc.NewWebsocketConn(server.wsURL(), rpc.DefaultWebsocketConnConfig, nil)

	var called atomic.Bool
	conn.OnDisconnect(func(err error) {
		called.Store(true)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := conn.Connect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, rpc.ErrHandshake)
	assert.Equal(t, rpc.StateDisconnected, conn.Session().State)
	assert.False(t, called.Load())
}

func TestWebsocketConn_ContextCancelledDuringHandshake(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{skipHandshake: true})
	conn := rpc.NewWebsocketConn(server.wsURL(), rpc.DefaultWebsocketConnConfig, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := conn.Connect(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, rpc.StateDisconnected, conn.Session().State)
}

func TestWebsocketConn_ConcurrentConnect(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{skipHandshake: true})
	conn := rpc.NewWebsocketConn(server.wsURL(), rpc.DefaultWebsocketConnConfig, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- conn.Connect(ctx)
	}()

	require.Eventually(t, func() bool {
		return server.handshakes.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, rpc.StateConnecting, conn.Session().State)
	assert.ErrorIs(t, conn.Connect(context.Background()), rpc.ErrConnecting)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWebsocketConn_Ping(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{connectionID: "conn-1"})

	cfg := rpc.DefaultWebsocketConnConfig
	cfg.PingInterval = 50 * time.Millisecond
	conn := rpc.NewWebsocketConn(server.wsURL(), cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Connect(ctx))
	defer conn.Close()

	assert.Eventually(t, func() bool {
		return server.pings.Load() >= 2
	}, 3*time.Second, 20*time.Millisecond)
	assert.True(t, conn.IsConnected())
}

func TestWebsocketConn_Send(t *testing.T) {
	t.Parallel()

	server := newWalletServer(t, walletServerOpts{connectionID: "conn-1"})
	conn := rpc.NewWebsocketConn(server.wsURL(), rpc.DefaultWebsocketConnConfig, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.ErrorIs(t, conn.Send(ctx, map[string]string{"action": "noop"}), rpc.ErrNotConnected)

	require.NoError(t, conn.Connect(ctx))
	defer conn.Close()

	require.NoError(t, conn.Send(ctx, map[string]string{"action": "noop"}))
	assert.ErrorIs(t, conn.Send(ctx, func() {}), rpc.ErrMarshalingMessage)

	assert.Eventually(t, func() bool {
		return server.received("noop")
	}, 2*time.Second, 10*time.Millisecond)
}

type walletServerOpts struct {
	connectionID     string
	skipHandshake    bool
	closeOnHandshake bool
}

type walletServer struct {
	*httptest.Server

	conns      chan *serverConn
	handshakes atomic.Int32
	pings      atomic.Int32

	mu      sync.Mutex
	actions []string
}

type serverConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (sc *serverConn) writeText(t *testing.T, text string) {
	t.Helper()

	sc.mu.Lock()
	defer sc.mu.Unlock()
	require.NoError(t, sc.conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

func newWalletServer(t *testing.T, opts walletServerOpts) *walletServer {
	t.Helper()

	ws := &walletServer{conns: make(chan *serverConn, 10)}
	ws.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sc := &serverConn{conn: conn}
		conn.SetPingHandler(func(data string) error {
			ws.pings.Add(1)
			sc.mu.Lock()
			defer sc.mu.Unlock()
			return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		})
		ws.conns <- sc

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var req struct {
				Action string `json:"action"`
			}
			if err := json.Unmarshal(msg, &req); err != nil {
				continue
			}

			ws.mu.Lock()
			ws.actions = append(ws.actions, req.Action)
			ws.mu.Unlock()

			if req.Action != rpc.ActionGetConnectionID.String() {
				continue
			}
			ws.handshakes.Add(1)

			switch {
			case opts.closeOnHandshake:
				return
			case opts.skipHandshake:
				continue
			}

			reply, err := rpc.NewMessage(rpc.MessageTypeConnectionID, opts.connectionID)
			if err != nil {
				return
			}
			replyJSON, err := json.Marshal(reply)
			if err != nil {
				return
			}

			sc.mu.Lock()
			err = conn.WriteMessage(websocket.TextMessage, replyJSON)
			sc.mu.Unlock()
			if err != nil {
				return
			}
		}
	}))
	t.Cleanup(ws.Close)

	return ws
}

func (ws *walletServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ws.URL, "http")
}

func (ws *walletServer) nextConn(t *testing.T) *serverConn {
	t.Helper()

	select {
	case sc := <-ws.conns:
		return sc
	case <-time.After(3 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

func (ws *walletServer) received(action string) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for _, a := range ws.actions {
		if a == action {
			return true
		}
	}
	return false
}

func receiveMessage(t *testing.T, ch <-chan rpc.Message) rpc.Message {
	t.Helper()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("no message received")
		return rpc.Message{}
	}
}
