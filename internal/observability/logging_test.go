package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/mvura-console/internal/config"
)

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"}, config.AppConfig{Name: "mvura-console", Env: "test"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		t.Fatal("debug enabled for unknown level")
	}
	if !logger.Core().Enabled(zap.InfoLevel) {
		t.Fatal("info disabled")
	}
}

func TestRequestLogger_LabelsByRoutePattern(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/tickets/42", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("level = %s, want warn", entries[0].Level)
	}
	if got := entries[0].ContextMap()["route"]; got != "/tickets/:id" {
		t.Errorf("route = %v", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("/tickets/:id", "GET", "404")); got != 1 {
		t.Errorf("requests counter = %v, want 1", got)
	}
}
