package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mtlprog/walletboard/internal/chain"
)

// ServerCatalog is the RPC server catalog.
type ServerCatalog interface {
	All() []chain.Metadata
	Lookup(s chain.Server) (chain.Metadata, error)
	Add(ctx context.Context, m chain.Metadata) error
	Update(ctx context.Context, m chain.Metadata) error
	Remove(ctx context.Context, s chain.Server) error
}

// ServerHandler provides HTTP endpoints for the RPC server catalog.
type ServerHandler struct {
	catalog ServerCatalog
}

// NewServerHandler creates a new catalog handler.
func NewServerHandler(catalog ServerCatalog) *ServerHandler {
	if catalog == nil {
		panic("api.NewServerHandler: catalog is nil")
	}
	return &ServerHandler{catalog: catalog}
}

// ListServers handles GET /api/v1/servers.
func (h *ServerHandler) ListServers(w http.ResponseWriter, r *http.Request) {
	all := h.catalog.All()
	if r.URL.Query().Get("custom") == "true" {
		custom := all[:0:0]
		for _, m := range all {
			if m.IsCustom {
				custom = append(custom, m)
			}
		}
		all = custom
	}
	writeJSON(w, http.StatusOK, all)
}

// GetServer handles GET /api/v1/servers/{chainId}.
func (h *ServerHandler) GetServer(w http.ResponseWriter, r *http.Request) {
	s, ok := serverFromPath(w, r)
	if !ok {
		return
	}
	m, err := h.catalog.Lookup(s)
	if err != nil {
		catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// AddServer handles POST /api/v1/servers.
func (h *ServerHandler) AddServer(w http.ResponseWriter, r *http.Request) {
	var m chain.Metadata
	if !decodeJSON(w, r, &m) {
		return
	}
	if err := h.catalog.Add(r.Context(), m); err != nil {
		catalogError(w, err)
		return
	}
	h.writeServer(w, http.StatusCreated, m.Server())
}

// UpdateServer handles PUT /api/v1/servers/{chainId}.
func (h *ServerHandler) UpdateServer(w http.ResponseWriter, r *http.Request) {
	s, ok := serverFromPath(w, r)
	if !ok {
		return
	}
	var m chain.Metadata
	if !decodeJSON(w, r, &m) {
		return
	}
	if m.ChainID != 0 && m.ChainID != s.ChainID() {
		writeError(w, http.StatusBadRequest, "chain ID in body does not match path")
		return
	}
	m.ChainID = s.ChainID()
	if err := h.catalog.Update(r.Context(), m); err != nil {
		catalogError(w, err)
		return
	}
	h.writeServer(w, http.StatusOK, s)
}

// DeleteServer handles DELETE /api/v1/servers/{chainId}.
func (h *ServerHandler) DeleteServer(w http.ResponseWriter, r *http.Request) {
	s, ok := serverFromPath(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Remove(r.Context(), s); err != nil {
		catalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ServerHandler) writeServer(w http.ResponseWriter, status int, s chain.Server) {
	m, err := h.catalog.Lookup(s)
	if err != nil {
		catalogError(w, err)
		return
	}
	writeJSON(w, status, m)
}

func serverFromPath(w http.ResponseWriter, r *http.Request) (chain.Server, bool) {
	id, err := strconv.ParseUint(r.PathValue("chainId"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid chain ID")
		return 0, false
	}
	return chain.Server(id), true
}

func catalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chain.ErrInvalidServer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chain.ErrUnknownServer):
		writeError(w, http.StatusNotFound, "server not found")
	case errors.Is(err, chain.ErrBuiltinServer):
		writeError(w, http.StatusForbidden, "built-in servers cannot be modified")
	case errors.Is(err, chain.ErrDuplicateServer):
		writeError(w, http.StatusConflict, "server already exists")
	default:
		slog.Error("catalog operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
