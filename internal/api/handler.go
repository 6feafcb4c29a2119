package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mtlprog/walletboard/internal/balance"
	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/filter"
	"github.com/mtlprog/walletboard/internal/metrics"
	"github.com/mtlprog/walletboard/internal/tokens"
)

const maxBodyBytes = 1 << 16

// TokenPipeline is the displayed wallet's token list.
type TokenPipeline interface {
	Wallet() string
	Current() tokens.Snapshot
	Subscribe() (<-chan tokens.Update, func())
	SetFilter(ctx context.Context, f filter.WalletFilter) error
	SetSearchText(ctx context.Context, text string) error
	SetSessionCount(ctx context.Context, n int) error
	Hide(ctx context.Context, id domain.TokenID) ([]int, error)
	Unhide(ctx context.Context, id domain.TokenID) error
}

// SummarySource provides balances of every tracked wallet.
type SummarySource interface {
	Balances() []balance.WalletBalance
	Summary() balance.WalletSummary
}

// Handler provides HTTP endpoints for the token list.
type Handler struct {
	tokens  TokenPipeline
	summary SummarySource
	metrics *metrics.Metrics
}

// NewHandler creates a new token list handler. m may be nil.
func NewHandler(tokens TokenPipeline, summary SummarySource, m *metrics.Metrics) *Handler {
	if tokens == nil || summary == nil {
		panic("api.NewHandler: nil dependency")
	}
	return &Handler{tokens: tokens, summary: summary, metrics: m}
}

// balanceText carries the display strings for a balance.
type balanceText struct {
	TotalAmount      string `json:"totalAmount"`
	Change           string `json:"change"`
	ChangePercentage string `json:"changePercentage"`
}

func textOf(b balance.WalletBalance) balanceText {
	return balanceText{
		TotalAmount:      b.TotalAmountString(),
		Change:           b.ChangeString(),
		ChangePercentage: b.ChangePercentageString(),
	}
}

type tokensResponse struct {
	Wallet      string          `json:"wallet"`
	Snapshot    tokens.Snapshot `json:"snapshot"`
	SummaryText balanceText     `json:"summaryText"`
}

// GetTokens handles GET /api/v1/tokens.
func (h *Handler) GetTokens(w http.ResponseWriter, r *http.Request) {
	snap := h.tokens.Current()
	writeJSON(w, http.StatusOK, tokensResponse{
		Wallet:      h.tokens.Wallet(),
		Snapshot:    snap,
		SummaryText: textOf(snap.Summary),
	})
}

type filterRequest struct {
	Filter  string `json:"filter"`
	Keyword string `json:"keyword"`
}

// SetFilter handles PUT /api/v1/filter.
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := filter.ParseWalletFilter(req.Filter, req.Keyword)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.tokens.SetFilter(r.Context(), f); err != nil {
		h.pipelineError(w, "set filter", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"filter": f})
}

type searchRequest struct {
	Text string `json:"text"`
}

// SetSearch handles PUT /api/v1/search.
func (h *Handler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.tokens.SetSearchText(r.Context(), req.Text); err != nil {
		h.pipelineError(w, "set search text", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"filter": h.tokens.Current().Filter})
}

type sessionsRequest struct {
	Count int `json:"count"`
}

// SetSessions handles PUT /api/v1/sessions.
func (h *Handler) SetSessions(w http.ResponseWriter, r *http.Request) {
	var req sessionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Count < 0 {
		writeError(w, http.StatusBadRequest, "count must not be negative")
		return
	}
	if err := h.tokens.SetSessionCount(r.Context(), req.Count); err != nil {
		h.pipelineError(w, "set session count", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": req.Count})
}

// HideToken handles POST /api/v1/tokens/{chainId}/{contract}/hide.
func (h *Handler) HideToken(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenIDFromPath(w, r)
	if !ok {
		return
	}
	paths, err := h.tokens.Hide(r.Context(), id)
	if err != nil {
		h.pipelineError(w, "hide token", err)
		return
	}
	if paths == nil {
		paths = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": id.Key(), "deletedIndexPaths": paths})
}

// UnhideToken handles POST /api/v1/tokens/{chainId}/{contract}/unhide.
func (h *Handler) UnhideToken(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenIDFromPath(w, r)
	if !ok {
		return
	}
	if err := h.tokens.Unhide(r.Context(), id); err != nil {
		h.pipelineError(w, "unhide token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": id.Key()})
}

type walletBalanceResponse struct {
	balance.WalletBalance
	Text balanceText `json:"text"`
}

type summaryResponse struct {
	balance.WalletSummary
	Text     balanceText             `json:"text"`
	Balances []walletBalanceResponse `json:"balances"`
}

// GetSummary handles GET /api/v1/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s := h.summary.Summary()
	resp := summaryResponse{WalletSummary: s, Text: textOf(s.WalletBalance), Balances: []walletBalanceResponse{}}
	for _, b := range h.summary.Balances() {
		resp.Balances = append(resp.Balances, walletBalanceResponse{WalletBalance: b, Text: textOf(b)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) pipelineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, tokens.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, "token not found")
	case errors.Is(err, tokens.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "token list is shutting down")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		slog.Error("token list operation failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func tokenIDFromPath(w http.ResponseWriter, r *http.Request) (domain.TokenID, bool) {
	chainID, err := strconv.ParseUint(r.PathValue("chainId"), 10, 64)
	if err != nil || chainID == 0 {
		writeError(w, http.StatusBadRequest, "invalid chain ID")
		return domain.TokenID{}, false
	}
	id, err := domain.ParseTokenID(chainID, r.PathValue("contract"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.TokenID{}, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", msg, err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
