package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/classroll/internal/database"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Health(t *testing.T) {
	app := fiber.New()
	handler := NewHealthHandler(nil)
	app.Get("/health", handler.Health)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result HealthResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if result.Status != "ok" {
		t.Errorf("Status = %s, want ok", result.Status)
	}

	if result.Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]database.Pinger
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no dependencies",
			wantStatus: 200,
			wantBody:   "ready",
		},
		{
			name: "store reachable",
			checks: map[string]database.Pinger{
				"store": pingFunc(func(context.Context) error { return nil }),
			},
			wantStatus: 200,
			wantBody:   "ready",
		},
		{
			name: "database down",
			checks: map[string]database.Pinger{
				"store":    pingFunc(func(context.Context) error { return nil }),
				"database": pingFunc(func(context.Context) error { return errors.New("refused") }),
			},
			wantStatus: 503,
			wantBody:   "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ready", NewHealthHandler(tt.checks).Ready)

			resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
			if err != nil {
				t.Fatalf("Failed to test: %v", err)
			}

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var result HealthResponse
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if result.Status != tt.wantBody {
				t.Errorf("Status = %s, want %s", result.Status, tt.wantBody)
			}
			if tt.wantStatus == 503 && result.Checks["database"] != "unavailable" {
				t.Errorf("Checks = %v, want database unavailable", result.Checks)
			}
		})
	}
}
