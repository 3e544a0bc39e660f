package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwrk-planet/board-service/internal/relay"
	"github.com/cwrk-planet/board-service/internal/service"
	badgerstore "github.com/cwrk-planet/board-service/internal/storage/badger"
	transporthttp "github.com/cwrk-planet/board-service/internal/transport/http"
	"github.com/cwrk-planet/board-service/internal/transport/ws"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func staticDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>board</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	return dir
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRouter_Static(t *testing.T) {
	h := transporthttp.NewHandler(stubPinger{}, staticDir(t))
	srv := httptest.NewServer(transporthttp.NewRouter(transporthttp.Deps{
		Handler: h,
		WS:      func(w http.ResponseWriter, r *http.Request) {},
	}))
	defer srv.Close()

	code, body := get(t, srv, "/")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "<h1>board</h1>")

	code, body = get(t, srv, "/app.js")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "console.log(1)", body)

	code, _ = get(t, srv, "/missing.css")
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouter_Healthz(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "store reachable", code: http.StatusOK},
		{name: "store down", err: errors.New("dial tcp: refused"), code: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := transporthttp.NewHandler(stubPinger{err: tt.err}, t.TempDir())
			srv := httptest.NewServer(transporthttp.NewRouter(transporthttp.Deps{
				Handler: h,
				WS:      func(w http.ResponseWriter, r *http.Request) {},
			}))
			defer srv.Close()

			code, _ := get(t, srv, "/healthz")
			require.Equal(t, tt.code, code)
		})
	}
}

func TestRouter_WebsocketThroughMiddleware(t *testing.T) {
	store, err := badgerstore.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	rl := relay.New(service.NewBoardService(store), relay.NewRegistry())
	defer rl.Close()

	srv := httptest.NewServer(transporthttp.NewRouter(transporthttp.Deps{
		Handler: transporthttp.NewHandler(store, t.TempDir()),
		WS:      ws.NewServer(rl).HandleWS,
	}))
	defer srv.Close()

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer c.Close()

	var f relay.Envelope
	require.NoError(t, c.ReadJSON(&f))
	require.Equal(t, relay.EventPreviousMessages, f.Type)
	require.Equal(t, []any{}, f.Payload)
}
