package errmodel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Category values for compact errors.
const (
	CategoryValidation = "validation"
	CategoryNetwork    = "network"
	CategoryUpstream   = "upstream"
	CategorySystem     = "system"
)

// Error is the compact error value passed between the GitHub adapter and the
// dispatcher. It implements the error interface.
//
// Error() renders Message only: the text a tool caller sees must not carry
// internal codes.
type Error struct {
	Category string         `json:"category"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Context  map[string]any `json:"context,omitempty"`
	Causes   []Error        `json:"causes,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the first cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// New constructs a new compact error.
func New(category, code, message string, ctx map[string]any, causes ...error) *Error {
	ce := &Error{Category: category, Code: code, Message: message}
	if len(ctx) > 0 {
		ce.Context = truncateContext(ctx)
	}
	for _, c := range causes {
		if c == nil {
			continue
		}
		if ce.cause == nil {
			ce.cause = c
		}
		ce.Causes = append(ce.Causes, *From(c))
	}
	return ce
}

// From converts any error into a compact Error. If err is already *Error, it's returned as-is.
func From(err error) *Error {
	var ce *Error
	if err == nil {
		return nil
	}
	if errors.As(err, &ce) {
		return ce
	}
	// Default to system/internal for unknown error types.
	return &Error{Category: CategorySystem, Code: "internal", Message: err.Error(), cause: err}
}

// Convenience constructors.
func Validation(code, message string, ctx map[string]any) *Error {
	return New(CategoryValidation, code, message, ctx)
}

func Network(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategoryNetwork, code, message, ctx, cause)
}

func Upstream(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategoryUpstream, code, message, ctx, cause)
}

func System(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategorySystem, code, message, ctx, cause)
}

// WithTrace returns a copy of e whose context carries the trace_id of the
// span active in ctx, if any.
func WithTrace(ctx context.Context, e *Error) *Error {
	if e == nil {
		return nil
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return e
	}
	out := *e
	out.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		out.Context[k] = v
	}
	out.Context["trace_id"] = sc.TraceID().String()
	return &out
}

// truncate trims a string to max characters.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// truncateContext trims long string values in the context map.
func truncateContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		switch t := v.(type) {
		case string:
			out[k] = truncate(t, 256)
		case int, int64, bool:
			out[k] = t
		default:
			// Try to stringify composite values to keep logs compact.
			b, err := json.Marshal(t)
			if err == nil && len(b) > 0 {
				out[k] = truncate(string(b), 256)
			} else {
				out[k] = t
			}
		}
	}
	return out
}

// IsCategory checks if err belongs to a specific category.
func IsCategory(err error, category string) bool {
	ce := From(err)
	return ce != nil && strings.EqualFold(ce.Category, category)
}

// IsCode checks if err carries the given category and code.
func IsCode(err error, category, code string) bool {
	ce := From(err)
	return ce != nil && strings.EqualFold(ce.Category, category) && ce.Code == code
}
