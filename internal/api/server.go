package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/walletboard/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// NewServer creates an HTTP server with all routes configured. Catalog
// mutations require the admin key when one is set. history and m may be nil.
func NewServer(port string, handler *Handler, servers *ServerHandler, history *HistoryHandler, m *metrics.Metrics, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      withRequestID(NewMux(handler, servers, history, m, adminAPIKey)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers every route on a new ServeMux.
func NewMux(handler *Handler, servers *ServerHandler, history *HistoryHandler, m *metrics.Metrics, adminAPIKey string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tokens", handler.GetTokens)
	mux.HandleFunc("GET /api/v1/tokens/stream", handler.StreamTokens)
	mux.HandleFunc("POST /api/v1/tokens/{chainId}/{contract}/hide", handler.HideToken)
	mux.HandleFunc("POST /api/v1/tokens/{chainId}/{contract}/unhide", handler.UnhideToken)
	mux.HandleFunc("PUT /api/v1/filter", handler.SetFilter)
	mux.HandleFunc("PUT /api/v1/search", handler.SetSearch)
	mux.HandleFunc("PUT /api/v1/sessions", handler.SetSessions)
	mux.HandleFunc("GET /api/v1/summary", handler.GetSummary)

	mux.HandleFunc("GET /api/v1/servers", servers.ListServers)
	mux.HandleFunc("GET /api/v1/servers/{chainId}", servers.GetServer)
	protect := func(h http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return h
		}
		return requireAuth(adminAPIKey, h)
	}
	mux.Handle("POST /api/v1/servers", protect(servers.AddServer))
	mux.Handle("PUT /api/v1/servers/{chainId}", protect(servers.UpdateServer))
	mux.Handle("DELETE /api/v1/servers/{chainId}", protect(servers.DeleteServer))

	if history != nil {
		mux.HandleFunc("GET /api/v1/history/{wallet}", history.GetHistory)
	}
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRequestID tags every request with an ID, reusing the caller's if sent.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "request_id", id, "duration", time.Since(start))
	})
}
