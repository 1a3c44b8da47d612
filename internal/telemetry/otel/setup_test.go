package otel

import (
	"context"
	"strings"
	"testing"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders empty endpoint: %v", err)
	}
	if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
		t.Error("no-op providers should all be non-nil")
	}
	if err := providers.Shutdown(context.Background()); err != nil {
		t.Errorf("no-op Shutdown: %v", err)
	}
}

func TestNewProviders_WhitespaceEndpoint(t *testing.T) {
	providers, err := NewProviders(context.Background(), "   ", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders whitespace endpoint: %v", err)
	}
	if err := providers.Shutdown(context.Background()); err != nil {
		t.Errorf("no-op Shutdown: %v", err)
	}
}

func TestNewProviders_MissingHost(t *testing.T) {
	_, err := NewProviders(context.Background(), "http://", "test-service", false)
	if err == nil {
		t.Fatal("NewProviders should reject endpoint without host")
	}
	if !strings.Contains(err.Error(), "missing host") {
		t.Errorf("error = %q, should mention missing host", err.Error())
	}
}

func TestNewProviders_EndpointNormalization(t *testing.T) {
	// Exporter construction is lazy, so creating providers against an
	// unreachable collector succeeds. That is enough to exercise URL parsing.
	cases := []string{
		"localhost:4317",
		"http://localhost:4317",
		"https://collector:4317/v1/traces",
	}
	for _, endpoint := range cases {
		providers, err := NewProviders(context.Background(), endpoint, "test-service", true)
		if err != nil {
			t.Errorf("NewProviders(%q): %v", endpoint, err)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 0)
		_ = providers.Shutdown(ctx)
		cancel()
	}
}
