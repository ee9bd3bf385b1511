package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/exsettle/settlementd/internal/auth"
	"github.com/exsettle/settlementd/internal/crypto"
	"github.com/exsettle/settlementd/internal/metrics"
	"github.com/exsettle/settlementd/internal/middleware"
	"github.com/exsettle/settlementd/internal/service"
	"github.com/exsettle/settlementd/internal/storage/sqlite"
)

const (
	testAPIKey    = "test-api-key"
	testJWTSecret = "test-jwt-secret"
)

type testEnv struct {
	router http.Handler
	store  *sqlite.SQLiteStore
	jwt    *auth.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "settlementd-api-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cipher, err := crypto.NewMemoCipher("x-test-encryption-secret")
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewSettlementService(store, cipher, logger, true)
	jwtManager := auth.NewJWTManager(testJWTSecret, time.Hour)

	router := NewRouter(RouterDeps{
		Handlers:    NewHandlers(svc, jwtManager, "Exchange Settlement", false),
		APIKey:      auth.NewAPIKeyVerifier(testAPIKey, false),
		JWT:         jwtManager,
		Metrics:     metrics.New(),
		RateLimiter: middleware.NewRateLimiter(1000, "/api/v1/health"),
	})

	return &testEnv{router: router, store: store, jwt: jwtManager}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	t.Run("healthy store", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["status"] != "healthy" || body["db"] != "connected" {
			t.Errorf("unexpected health body: %v", body)
		}
	})

	t.Run("unreachable store", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.Close()

		rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["status"] != "unhealthy" || body["db"] != "disconnected" {
			t.Errorf("unexpected health body: %v", body)
		}
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing username yields 400", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/login", map[string]any{}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("valid username yields a verifiable token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/login", map[string]any{"username": "admin"}, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["success"] != true {
			t.Errorf("expected success=true, got %v", body)
		}

		token, _ := body["token"].(string)
		if token == "" {
			t.Fatal("expected a token in the response")
		}
		claims, err := env.jwt.Validate(token)
		if err != nil {
			t.Fatalf("issued token failed validation: %v", err)
		}
		if claims.Username != "admin" || claims.Role != "admin" {
			t.Errorf("claims = %+v, want username=admin role=admin", claims)
		}
	})
}

func TestCreateSettlement(t *testing.T) {
	validBody := map[string]any{
		"market_pair": "BTC/USD",
		"amount":      1,
		"price":       50000,
		"memo":        "Secret Deal",
	}

	t.Run("no api key yields 401", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/settlements", validBody, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong api key yields 401", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/settlements", validBody,
			map[string]string{"x-api-key": "nope"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid key and body yields 201 with round-trip memo", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/settlements", validBody,
			map[string]string{"x-api-key": testAPIKey})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
		}

		body := decodeBody(t, rec)
		if body["success"] != true {
			t.Errorf("expected success=true, got %v", body)
		}
		data, _ := body["data"].(map[string]any)
		if data == nil {
			t.Fatalf("expected data object, got %v", body)
		}
		if data["decrypted_memo"] != "Secret Deal" {
			t.Errorf("decrypted_memo = %v, want %q", data["decrypted_memo"], "Secret Deal")
		}
		if data["sensitive_memo"] == "" || data["sensitive_memo"] == "Secret Deal" {
			t.Errorf("memo not encrypted: %v", data["sensitive_memo"])
		}
		if data["id"] == nil || data["id"] == float64(0) {
			t.Errorf("expected assigned id, got %v", data["id"])
		}
	})

	t.Run("missing fields yield 400", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/settlements",
			map[string]any{"market_pair": "BTC/USD"},
			map[string]string{"x-api-key": testAPIKey})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("negative amount yields 400 with validation code", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/settlements",
			map[string]any{"market_pair": "BTC/USD", "amount": -1, "price": 100},
			map[string]string{"x-api-key": testAPIKey})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["error"] != "ValidationError" {
			t.Errorf("error code = %v, want ValidationError", body["error"])
		}
	})

	t.Run("malformed body yields 400", func(t *testing.T) {
		env := newTestEnv(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements",
			bytes.NewBufferString("{not json"))
		req.Header.Set("x-api-key", testAPIKey)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestListSettlements(t *testing.T) {
	t.Run("no token yields 401", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/api/v1/settlements", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("invalid token yields 403", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/api/v1/settlements", nil,
			map[string]string{"Authorization": "Bearer not.a.token"})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("token from another secret yields 403", func(t *testing.T) {
		env := newTestEnv(t)
		foreign := auth.NewJWTManager("other-secret", time.Hour)
		token, err := foreign.Generate("admin")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		rec := env.do(t, http.MethodGet, "/api/v1/settlements", nil,
			map[string]string{"Authorization": "Bearer " + token})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("valid token lists rows with decrypted memos", func(t *testing.T) {
		env := newTestEnv(t)

		for _, memo := range []string{"alpha", "beta"} {
			rec := env.do(t, http.MethodPost, "/api/v1/settlements",
				map[string]any{"market_pair": "BTC/USD", "amount": 1, "price": 100, "memo": memo},
				map[string]string{"x-api-key": testAPIKey})
			if rec.Code != http.StatusCreated {
				t.Fatalf("setup create failed: %d %s", rec.Code, rec.Body.String())
			}
		}

		token, err := env.jwt.Generate("admin")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		rec := env.do(t, http.MethodGet, "/api/v1/settlements", nil,
			map[string]string{"Authorization": "Bearer " + token})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}

		body := decodeBody(t, rec)
		if body["count"] != float64(2) {
			t.Errorf("count = %v, want 2", body["count"])
		}
		data, _ := body["data"].([]any)
		if len(data) != 2 {
			t.Fatalf("expected 2 items, got %d", len(data))
		}
		for _, item := range data {
			row, _ := item.(map[string]any)
			memo, ok := row["decrypted_memo"].(string)
			if !ok || memo == "" {
				t.Errorf("item missing decrypted_memo: %v", row)
			}
		}
	})
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Endpoint not found" {
		t.Errorf("unexpected 404 body: %v", body)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	env := newTestEnv(t)

	t.Run("inbound id is echoed", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/health", nil,
			map[string]string{"x-request-id": "trace-123"})
		if got := rec.Header().Get("x-request-id"); got != "trace-123" {
			t.Errorf("x-request-id = %q, want trace-123", got)
		}
	})

	t.Run("id is generated when absent", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil)
		if rec.Header().Get("x-request-id") == "" {
			t.Error("expected generated x-request-id header")
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// Generate one request so counters exist.
	env.do(t, http.MethodGet, "/api/v1/health", nil, nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("settlementd_http_requests_total")) {
		t.Error("expected settlementd_http_requests_total in exposition")
	}
}
