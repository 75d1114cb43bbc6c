package provider_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/SIVIRA/unwallet-provider-js/pkg/provider"
	"github.com/SIVIRA/unwallet-provider-js/pkg/rpc"
	"github.com/SIVIRA/unwallet-provider-js/pkg/window"
)

// walletServer plays the remote wallet's websocket endpoint.
type walletServer struct {
	*httptest.Server

	handshakes atomic.Int32

	mu      sync.Mutex
	current *websocket.Conn
	writeMu sync.Mutex
}

func newWalletServer(t *testing.T) *walletServer {
	t.Helper()

	ws := &walletServer{}
	ws.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ws.mu.Lock()
		ws.current = conn
		ws.mu.Unlock()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var req rpc.Request
			if err := json.Unmarshal(msg, &req); err != nil || req.Action != rpc.ActionGetConnectionID {
				continue
			}
			n := ws.handshakes.Add(1)

			reply, err := rpc.NewMessage(rpc.MessageTypeConnectionID, "conn-"+string(rune('0'+n)))
			if err != nil {
				return
			}
			if err := ws.write(conn, reply); err != nil {
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

func (ws *walletServer) write(conn *websocket.Conn, msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, raw)
}

// send delivers a message to the most recent connection, as the signer
// window would.
func (ws *walletServer) send(t *testing.T, typ rpc.MessageType, value any) {
	t.Helper()

	msg, err := rpc.NewMessage(typ, value)
	require.NoError(t, err)
	ws.sendMessage(t, msg)
}

func (ws *walletServer) sendMessage(t *testing.T, msg any) {
	t.Helper()

	ws.mu.Lock()
	conn := ws.current
	ws.mu.Unlock()

	require.NotNil(t, conn, "no wallet connection")
	require.NoError(t, ws.write(conn, msg))
}

// drop closes the most recent connection abruptly.
func (ws *walletServer) drop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.current != nil {
		ws.current.Close()
	}
}

// fakeUI records window opens and can answer them like the signer window.
type fakeUI struct {
	mu      sync.Mutex
	opened  []*url.URL
	blocked bool
	prompt  *window.Prompt
	onOpen  func(u *url.URL)
}

func (u *fakeUI) Open(rawURL, target, features string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	u.mu.Lock()
	u.opened = append(u.opened, parsed)
	blocked := u.blocked
	onOpen := u.onOpen
	u.mu.Unlock()

	if blocked {
		return false
	}
	if onOpen != nil {
		go onOpen(parsed)
	}
	return true
}

func (u *fakeUI) ScreenSize() (int, int) { return 1920, 1080 }
func (u *fakeUI) Language() string       { return "en-US" }

func (u *fakeUI) ShowPrompt(p window.Prompt) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompt = &p
}

func (u *fakeUI) HidePrompt() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompt = nil
}

func (u *fakeUI) setOnOpen(f func(u *url.URL)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onOpen = f
}

func (u *fakeUI) setBlocked(blocked bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.blocked = blocked
}

func (u *fakeUI) openCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.opened)
}

func (u *fakeUI) lastOpened() *url.URL {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.opened) == 0 {
		return nil
	}
	return u.opened[len(u.opened)-1]
}

func (u *fakeUI) currentPrompt() *window.Prompt {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.prompt
}

type testEnv struct {
	p      *provider.Provider
	wallet *walletServer
	ui     *fakeUI
}

func newTestEnv(t *testing.T, cfg provider.Config, opts ...provider.Option) *testEnv {
	t.Helper()

	wallet := newWalletServer(t)
	ui := &fakeUI{}
	conn := rpc.NewWebsocketConn(wallet.wsURL(), rpc.DefaultWebsocketConnConfig, nil)

	opts = append([]provider.Option{provider.WithUI(ui), provider.WithConn(conn)}, opts...)
	p, err := provider.New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	return &testEnv{p: p, wallet: wallet, ui: ui}
}

// replyOnOpen answers every signer window with a message of typ and value.
func (env *testEnv) replyOnOpen(t *testing.T, typ rpc.MessageType, value any) {
	env.ui.setOnOpen(func(*url.URL) {
		msg, err := rpc.NewMessage(typ, value)
		if err != nil {
			return
		}
		env.wallet.mu.Lock()
		conn := env.wallet.current
		env.wallet.mu.Unlock()
		if conn != nil {
			_ = env.wallet.write(conn, msg)
		}
	})
	t.Cleanup(func() { env.ui.setOnOpen(nil) })
}

// connectAccounts runs eth_requestAccounts answered with addrs on chainID.
func (env *testEnv) connectAccounts(t *testing.T, chainID uint64, addrs ...common.Address) {
	t.Helper()

	env.replyOnOpen(t, rpc.MessageTypeAccounts, map[string]any{
		"chainId":   chainID,
		"addresses": addrs,
	})
	defer env.ui.setOnOpen(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := env.p.Enable(ctx)
	require.NoError(t, err)
	require.Equal(t, addrs, got)
}

type requestResult struct {
	raw json.RawMessage
	err error
}

func requestAsync(ctx context.Context, p *provider.Provider, method string, reqParams any) <-chan requestResult {
	done := make(chan requestResult, 1)
	go func() {
		raw, err := p.Request(ctx, provider.RequestArguments{Method: method, Params: reqParams})
		done <- requestResult{raw: raw, err: err}
	}()
	return done
}

func awaitResult(t *testing.T, ch <-chan requestResult) requestResult {
	t.Helper()

	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete")
		return requestResult{}
	}
}

func awaitEvent(t *testing.T, ch <-chan provider.Event, typ provider.EventType) provider.Event {
	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", typ)
			return provider.Event{}
		}
	}
}

// testChain is the JSON-RPC upstream used for pass-through tests.
type testChain struct{}

func (testChain) BlockNumber() hexutil.Uint64 {
	return 42
}

func (testChain) GetBalance(addr common.Address, block string) (*hexutil.Big, error) {
	return (*hexutil.Big)(big.NewInt(1000)), nil
}

func (testChain) Call(args map[string]any, block string) (hexutil.Bytes, error) {
	return nil, revertError{}
}

type revertError struct{}

func (revertError) Error() string  { return "execution reverted" }
func (revertError) ErrorCode() int { return 3 }
func (revertError) ErrorData() any { return "0x08c379a0" }

type echoService struct{}

func (echoService) Echo(obj map[string]any) map[string]any {
	return obj
}

func newTestChain(t *testing.T) string {
	t.Helper()

	server := gethrpc.NewServer()
	require.NoError(t, server.RegisterName("eth", new(testChain)))
	require.NoError(t, server.RegisterName("test", new(echoService)))

	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})
	return httpServer.URL
}
