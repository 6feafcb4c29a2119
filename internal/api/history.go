package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mtlprog/walletboard/internal/balance"
)

const maxHistoryLimit = 366

// HistorySource returns a wallet's daily balances, newest first.
type HistorySource interface {
	History(ctx context.Context, wallet string, limit int) ([]balance.DailyBalance, error)
}

// HistoryHandler serves recorded daily wallet balances.
type HistoryHandler struct {
	source HistorySource
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(source HistorySource) *HistoryHandler {
	if source == nil {
		panic("api.NewHistoryHandler: source is nil")
	}
	return &HistoryHandler{source: source}
}

// GetHistory handles GET /api/v1/history/{wallet}?limit=N.
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	wallet := r.PathValue("wallet")
	if !common.IsHexAddress(wallet) {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
			return
		}
		limit = n
	}

	history, err := h.source.History(r.Context(), wallet, limit)
	if err != nil {
		slog.Error("failed to load balance history", "wallet", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if history == nil {
		history = []balance.DailyBalance{}
	}
	writeJSON(w, http.StatusOK, history)
}
