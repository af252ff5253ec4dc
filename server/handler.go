// Package server exposes the shopping agent over REST and WebSocket.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/pattarin-dev/shopflow/agent/contract"
	"github.com/pattarin-dev/shopflow/agent/orchestrator"
	statex "github.com/pattarin-dev/shopflow/agent/state"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Handler serves the REST surface on top of the orchestrator service.
type Handler struct {
	svc     *orchestrator.Service
	catalog contractx.CatalogGateway
}

func NewHandler(svc *orchestrator.Service, catalog contractx.CatalogGateway) *Handler {
	return &Handler{svc: svc, catalog: catalog}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	Error(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, contractx.ErrValidation),
		errors.Is(err, orchestrator.ErrInvalidMessage),
		errors.Is(err, orchestrator.ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, contractx.ErrNotFound), errors.Is(err, statex.ErrStateNotFound):
		return http.StatusNotFound
	case errors.Is(err, contractx.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, contractx.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	ImageRef  string `json:"image_ref,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = uuid.NewString()
	}

	res, err := h.svc.HandleMessage(r.Context(), req.SessionID, req.Message, req.ImageRef)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

type confirmRequest struct {
	SessionID string `json:"session_id"`
	Confirmed bool   `json:"confirmed"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.ConfirmAction(r.Context(), req.SessionID, req.Confirmed)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	cart, err := h.svc.Cart(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, cart)
}

type cartMutateRequest struct {
	Op        string `json:"op"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

func (h *Handler) handleMutateCart(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req cartMutateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cart, err := h.svc.MutateCart(r.Context(), sessionID, req.Op, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, cart)
}

type searchRequest struct {
	Query    string                  `json:"query"`
	Filters  contractx.SearchFilters `json:"filters,omitempty"`
	Page     int                     `json:"page,omitempty"`
	PageSize int                     `json:"page_size,omitempty"`
}

type searchResponse struct {
	Products []contractx.Product `json:"products"`
	Total    int                 `json:"total"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	products, total, err := h.catalog.Search(r.Context(), req.Query, req.Filters, req.Page, req.PageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, searchResponse{Products: products, Total: total})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	details, err := h.catalog.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, details)
}

func (h *Handler) handleRelated(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Related(r.Context(), chi.URLParam(r, "productID"), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.History(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"messages": msgs})
}
