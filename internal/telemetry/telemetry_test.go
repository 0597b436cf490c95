package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInit_NoEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown, err := Init(context.Background(), "test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestHTTPClient(t *testing.T) {
	c := HTTPClient(3 * time.Second)
	if c.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout %v", c.Timeout)
	}
	if c.Transport == nil {
		t.Fatal("expected a traced transport")
	}
}
