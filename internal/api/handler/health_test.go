package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/health", "")
	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("liveness: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
}

func TestHealthDependenciesHandler_Readiness(t *testing.T) {
	ok := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("connection refused") })

	c, rec := newContext(http.MethodGet, "/health/ready", "")
	if err := NewHealthDependenciesHandler(map[string]Pinger{"mongodb": ok, "redis": ok}).Readiness(c); err != nil {
		t.Fatalf("readiness: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	c, rec = newContext(http.MethodGet, "/health/ready", "")
	if err := NewHealthDependenciesHandler(map[string]Pinger{"mongodb": ok, "redis": down}).Readiness(c); err != nil {
		t.Fatalf("readiness: %v", err)
	}
	assertStatus(t, rec, http.StatusServiceUnavailable)

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["mongodb"].Status != "ok" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}
