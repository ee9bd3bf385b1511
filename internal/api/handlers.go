package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/exsettle/settlementd/internal/auth"
	"github.com/exsettle/settlementd/internal/errs"
	"github.com/exsettle/settlementd/internal/middleware"
	"github.com/exsettle/settlementd/internal/models"
	"github.com/exsettle/settlementd/internal/service"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 10 << 10 // 10KB

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	svc         *service.SettlementService
	jwtManager  *auth.JWTManager
	serviceName string

	// production hides internal error detail from 5xx responses.
	production bool
}

// NewHandlers creates the handler set.
func NewHandlers(svc *service.SettlementService, jwtManager *auth.JWTManager, serviceName string, production bool) *Handlers {
	return &Handlers{
		svc:         svc,
		jwtManager:  jwtManager,
		serviceName: serviceName,
		production:  production,
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

// respondError maps a tagged error to its status code. 5xx responses carry
// a generic message in production mode and the internal message otherwise;
// full detail always goes to the log.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := kind.HTTPStatus()

	slog.Error("Request failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"path", r.URL.Path,
		"code", kind.Code(),
		"error", err,
	)

	message := err.Error()
	var tagged *errs.Error
	if errors.As(err, &tagged) {
		message = tagged.Msg
	}
	if status >= http.StatusInternalServerError && h.production {
		message = "Internal server error"
	}

	writeError(w, status, kind.Code(), message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Health ---

// Health reports liveness of the service and its backing store.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.HealthCheck(r.Context()); err != nil {
		slog.Error("Health check failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "unhealthy",
			"db":     "disconnected",
			"error":  errs.KindOf(err).Code(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"db":      "connected",
		"service": h.serviceName,
	})
}

// --- Login ---

type loginRequest struct {
	Username string `json:"username"`
}

// Login issues a session token for the given username.
//
// The endpoint is deliberately ungated: it exists to mint tokens for test
// and demo clients. Anything beyond that needs an identity provider in
// front of it.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errs.Validation.Code(), "Invalid request body")
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, errs.Validation.Code(), "Username required")
		return
	}

	token, err := h.jwtManager.Generate(req.Username)
	if err != nil {
		h.respondError(w, r, errs.Wrap(errs.Internal, "failed to issue token", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}

// --- CreateSettlement ---

// CreateSettlement records a new settlement with the memo encrypted at rest.
func (h *Handlers) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	var input models.SettlementInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, errs.Validation.Code(), "Invalid request body")
		return
	}
	if input.MarketPair == "" || input.Amount == 0 || input.Price == 0 {
		writeError(w, http.StatusBadRequest, errs.Validation.Code(), "Missing required fields")
		return
	}

	result, err := h.svc.ProcessSettlement(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    result,
		"message": "Settlement processed (Data Encrypted)",
	})
}

// --- ListSettlements ---

// ListSettlements returns the most recent settlements with decrypted memos.
func (h *Handlers) ListSettlements(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.GetRecentSettlements(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(results),
		"data":    results,
	})
}

// --- NotFound ---

// NotFound answers unmatched routes with a JSON body carrying the request id.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":      "Endpoint not found",
		"request_id": middleware.GetRequestID(r.Context()),
		"path":       r.URL.Path,
	})
}
