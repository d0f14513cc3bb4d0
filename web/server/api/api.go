// Package api implements the handlers of the number service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"go.hackfix.me/scriptomate/sequence"
	"go.hackfix.me/scriptomate/web/server/api/util"
	"go.hackfix.me/scriptomate/web/server/types"
)

// NumberAllocator allocates sequence numbers for keys.
type NumberAllocator interface {
	NextNumber(ctx context.Context, key string, mode sequence.Mode) (string, error)
}

// Handler serves sequence numbers over HTTP.
type Handler struct {
	alloc  NumberAllocator
	logger *slog.Logger
}

// SetupHandlers configures the number service routes. Authentication is
// expected to be handled by middleware.
func SetupHandlers(alloc NumberAllocator, logger *slog.Logger) http.Handler {
	h := &Handler{alloc: alloc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/nextnumber", h.GetNextNumber)
	mux.HandleFunc("POST /json/reply/GetNextNumber", h.PostNextNumber)

	return mux
}

// GetNextNumber returns the next number for the key query parameter as a JSON
// string.
func (h *Handler) GetNextNumber(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	num, ok := h.allocate(w, r, key)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(num)
}

// PostNextNumber returns the next number for the key in the request body.
func (h *Handler) PostNextNumber(w http.ResponseWriter, r *http.Request) {
	var req types.GetNextNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = util.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := strings.TrimSpace(req.ForKey)
	num, ok := h.allocate(w, r, key)
	if !ok {
		return
	}

	_ = util.WriteJSON(w, types.GetNextNumberResponse{ForKey: key, NextSequenceNumber: num})
}

func (h *Handler) allocate(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	if key == "" {
		_ = util.WriteError(w, http.StatusBadRequest, "missing sequence key")
		return "", false
	}

	num, err := h.alloc.NextNumber(r.Context(), key, sequence.ModeTableStorage)
	if err != nil {
		h.logger.Error("failed allocating sequence number", "key", key, "error", err)
		_ = util.WriteError(w, http.StatusInternalServerError, "failed allocating sequence number")
		return "", false
	}

	return num, true
}
