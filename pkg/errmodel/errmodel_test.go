package errmodel

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewAndFrom(t *testing.T) {
	e := Validation("missing_fields", "run_id is required", map[string]any{"field": "run_id"})
	if e.Category != CategoryValidation || e.Code != "missing_fields" {
		t.Fatalf("unexpected: %#v", e)
	}
	if got := From(e); got != e {
		t.Fatalf("From should return same error instance")
	}
	if e.Error() != "run_id is required" {
		t.Fatalf("Error()=%q", e.Error())
	}
}

func TestFrom_PlainErrorIsSystem(t *testing.T) {
	base := errors.New("boom")
	ce := From(base)
	if ce.Category != CategorySystem || ce.Code != "internal" || ce.Message != "boom" {
		t.Fatalf("unexpected: %#v", ce)
	}
	if !errors.Is(ce, base) {
		t.Fatal("From should keep the original error reachable")
	}
	if From(nil) != nil {
		t.Fatal("From(nil) should be nil")
	}
}

func TestCausesAreUnwrappable(t *testing.T) {
	cause := context.DeadlineExceeded
	e := Network("transport", "GET /x: deadline exceeded", nil, cause)
	if !errors.Is(e, context.DeadlineExceeded) {
		t.Fatal("expected errors.Is to reach cause")
	}
	if len(e.Causes) != 1 || e.Causes[0].Category != CategorySystem {
		t.Fatalf("causes=%+v", e.Causes)
	}
	if !IsCategory(e, "NETWORK") || !IsCode(e, CategoryNetwork, "transport") {
		t.Fatal("category/code checks failed")
	}
}

func TestTruncateContext(t *testing.T) {
	long := strings.Repeat("x", 400)
	e := Upstream("http_status", "bad", map[string]any{"body": long, "status": 500, "list": []string{"a"}}, nil)
	if got := e.Context["body"].(string); len(got) != 256 || !strings.HasSuffix(got, "...") {
		t.Fatalf("body not truncated: len=%d", len(got))
	}
	if e.Context["status"] != 500 {
		t.Fatalf("status=%v", e.Context["status"])
	}
	if e.Context["list"] != `["a"]` {
		t.Fatalf("list=%v", e.Context["list"])
	}
}

func TestWithTrace(t *testing.T) {
	e := Validation("x", "y", nil)
	if got := WithTrace(context.Background(), e); got != e {
		t.Fatal("no span: expected same error")
	}
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	got := WithTrace(ctx, e)
	if got.Context["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id=%v", got.Context["trace_id"])
	}
	if e.Context != nil {
		t.Fatal("original error must not be mutated")
	}
}
