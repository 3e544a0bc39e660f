package http

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/cwrk-planet/board-service/pkg/logger"
)

// Pinger reports whether the message store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	store     Pinger
	staticDir string
}

func NewHandler(store Pinger, staticDir string) *Handler {
	return &Handler{store: store, staticDir: staticDir}
}

// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.staticDir, "index.html"))
}

// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("health check failed", "err", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
