package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.mau.fi/whatsmeow/types/events"

	"github.com/aaquinonez01/whatsapp-service/internal/infra/config"
	"github.com/aaquinonez01/whatsapp-service/internal/infra/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.PhoneNumber = "5511999999999"
	cfg.StorePath = filepath.Join(t.TempDir(), "store")
	return cfg
}

func getStatus(t *testing.T, h http.Handler) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return body
}

func TestNewRequiresPhoneNumber(t *testing.T) {
	cfg := testConfig(t)
	cfg.PhoneNumber = ""

	if _, err := New(cfg, logger.Nop()); !errors.Is(err, config.ErrMissingPhoneNumber) {
		t.Fatalf("New() error = %v, want ErrMissingPhoneNumber", err)
	}
}

func TestLifecycleEventsDriveStatus(t *testing.T) {
	a, err := New(testConfig(t), logger.Nop())
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer a.Shutdown()

	if a.Client.IsLoggedIn() {
		t.Fatalf("fresh store reported a logged in session")
	}

	h := a.Server.Handler()
	if body := getStatus(t, h); body["status"] != "disconnected" || body["isConnected"] != false {
		t.Fatalf("initial status = %v", body)
	}

	a.Dispatcher.Handle(&events.Connected{})
	if body := getStatus(t, h); body["status"] != "connected" || body["isConnected"] != true {
		t.Fatalf("status after ready = %v", body)
	}

	a.Dispatcher.Handle(&events.Disconnected{})
	if body := getStatus(t, h); body["status"] != "disconnected" || body["isConnected"] != false {
		t.Fatalf("status after close = %v", body)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/send-message", strings.NewReader(`{"number":"5511999999999","message":"hi"}`))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "not_connected") {
		t.Fatalf("send while disconnected = %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFailureSchedulesRetry(t *testing.T) {
	a, err := New(testConfig(t), logger.Nop())
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer a.Shutdown()

	a.Dispatcher.Handle(&events.LoggedOut{})
	if body := getStatus(t, a.Server.Handler()); body["status"] != "error" {
		t.Fatalf("status after auth failure = %v", body)
	}
	if !a.States.RetryPending() {
		t.Fatalf("no deferred transition scheduled after auth failure")
	}
}
