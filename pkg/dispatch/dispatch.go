// Package dispatch routes tool calls to the GitHub Actions adapter and
// folds every outcome into a single result envelope.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/mcp-ci/pkg/config"
	"github.com/wilhg/mcp-ci/pkg/errmodel"
	"github.com/wilhg/mcp-ci/pkg/github"
	"github.com/wilhg/mcp-ci/pkg/store"
	"github.com/wilhg/mcp-ci/pkg/tool"
)

const instrumentationName = "github.com/wilhg/mcp-ci/pkg/dispatch"

// errorPrefix starts the text of every failure except an unknown tool.
const errorPrefix = "CI error: "

// Request is one tool call. Nil Arguments means none were sent.
type Request struct {
	Name      string
	Arguments map[string]any
}

// Caller issues one outbound GitHub API call. *github.Client implements it.
type Caller interface {
	Do(ctx context.Context, call github.Call) ([]byte, error)
}

// Dispatcher executes tool calls. It holds no per-call state and is safe
// for concurrent use.
type Dispatcher struct {
	settings config.Settings
	registry *tool.Registry
	api      Caller
	logger   *slog.Logger
	tracer   trace.Tracer
	journal  store.Journal

	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

type options struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	meter   metric.Meter
	journal store.Journal
}

// Option configures a Dispatcher.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithTracer sets the tracer. Defaults to the global tracer provider.
func WithTracer(t trace.Tracer) Option { return func(o *options) { o.tracer = t } }

// WithMeter sets the meter used for invocation metrics. Defaults to the
// global meter provider.
func WithMeter(m metric.Meter) Option { return func(o *options) { o.meter = m } }

// WithJournal records every finished invocation to j.
func WithJournal(j store.Journal) Option { return func(o *options) { o.journal = j } }

// New returns a Dispatcher bound to settings, the tool catalog and an
// outbound caller.
func New(settings config.Settings, registry *tool.Registry, api Caller, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("dispatch: registry is required")
	}
	if api == nil {
		return nil, errors.New("dispatch: api caller is required")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}
	if o.meter == nil {
		o.meter = otel.Meter(instrumentationName)
	}

	invocations, err := o.meter.Int64Counter(
		"mcp_ci.tool.invocations",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: create invocations counter: %w", err)
	}
	latency, err := o.meter.Float64Histogram(
		"mcp_ci.tool.latency",
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: create latency histogram: %w", err)
	}

	return &Dispatcher{
		settings:    settings,
		registry:    registry,
		api:         api,
		logger:      o.logger,
		tracer:      o.tracer,
		journal:     o.journal,
		invocations: invocations,
		latency:     latency,
	}, nil
}

// Registry returns the catalog the dispatcher serves.
func (d *Dispatcher) Registry() *tool.Registry { return d.registry }

// Invoke runs one tool call. It never returns an error: unknown tools,
// bad arguments, transport failures and non-2xx responses all come back
// as an envelope with IsError set.
func (d *Dispatcher) Invoke(ctx context.Context, req Request) Result {
	return d.invoke(ctx, req, nil)
}

// InvokeRaw is Invoke for arguments still in wire form. An absent or
// null payload means no arguments; anything that is not a JSON object is
// reported as invalid arguments once the tool name is known to be valid.
func (d *Dispatcher) InvokeRaw(ctx context.Context, name string, raw json.RawMessage) Result {
	var (
		args      map[string]any
		decodeErr error
	)
	if len(raw) > 0 {
		decodeErr = json.Unmarshal(raw, &args)
	}
	return d.invoke(ctx, Request{Name: name, Arguments: args}, decodeErr)
}

func (d *Dispatcher) invoke(ctx context.Context, req Request, decodeErr error) (result Result) {
	requestID := uuid.NewString()
	started := time.Now()
	ctx, span := d.tracer.Start(ctx, "dispatch.Invoke",
		trace.WithAttributes(
			attribute.String("tool.name", req.Name),
			attribute.String("request.id", requestID),
		),
	)

	args := req.Arguments
	if args == nil {
		args = map[string]any{}
	}

	var failure error
	defer func() {
		if r := recover(); r != nil {
			failure = errmodel.System("panic", fmt.Sprintf("%s panicked: %v", req.Name, r), nil, nil)
			result = errorResult(errorPrefix + failure.Error())
		}
		d.finish(ctx, span, requestID, req.Name, args, result, failure, time.Since(started))
	}()

	handler, ok := handlers[req.Name]
	if _, known := d.registry.Lookup(req.Name); !known || !ok {
		failure = errmodel.Validation("not_found", "Unknown tool: "+req.Name, map[string]any{"tool": req.Name})
		return errorResult(failure.Error())
	}

	if decodeErr != nil {
		failure = invalidArgs(req.Name, decodeErr)
		return errorResult(errorPrefix + failure.Error())
	}
	if d.settings.StrictArgs {
		if err := d.registry.Validate(req.Name, args); err != nil {
			failure = invalidArgs(req.Name, err)
			return errorResult(errorPrefix + failure.Error())
		}
	}

	payload, err := handler(ctx, d, args)
	if err != nil {
		failure = classify(err)
		return errorResult(errorPrefix + failure.Error())
	}
	text, err := renderJSON(payload)
	if err != nil {
		failure = errmodel.System("encode_result", fmt.Sprintf("encoding result: %v", err), nil, err)
		return errorResult(errorPrefix + failure.Error())
	}
	return textResult(text)
}

// classify maps adapter failures onto the error taxonomy. The message is
// left untouched so envelope text matches the adapter's wording.
func classify(err error) *errmodel.Error {
	var apiErr *github.APIError
	if !errors.As(err, &apiErr) {
		return errmodel.From(err)
	}
	code := "http_status"
	switch {
	case github.IsNotFound(err):
		code = "not_found"
	case github.IsConflict(err):
		code = "conflict"
	}
	fields := map[string]any{"status": apiErr.StatusCode}
	if apiErr.Message != "" {
		fields["message"] = apiErr.Message
	}
	if apiErr.DocumentationURL != "" {
		fields["documentation_url"] = apiErr.DocumentationURL
	}
	return errmodel.Upstream(code, apiErr.Error(), fields, err)
}

func (d *Dispatcher) finish(ctx context.Context, span trace.Span, requestID, name string, args map[string]any, result Result, failure error, elapsed time.Duration) {
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("tool", name),
		attribute.Bool("is_error", result.IsError),
	}
	d.invocations.Add(ctx, 1, metric.WithAttributes(attrs...))
	d.latency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))

	logArgs := []any{
		"tool", name,
		"request_id", requestID,
		"duration", elapsed,
		"is_error", result.IsError,
	}
	if failure != nil {
		e := errmodel.WithTrace(ctx, errmodel.From(failure))
		span.RecordError(failure)
		span.SetStatus(codes.Error, e.Code)
		logArgs = append(logArgs, "category", e.Category, "code", e.Code)
		for _, key := range []string{"status", "message", "documentation_url", "trace_id"} {
			if v, ok := e.Context[key]; ok {
				logArgs = append(logArgs, key, v)
			}
		}
		d.logger.Warn("tool call failed", logArgs...)
	} else {
		d.logger.Info("tool call", logArgs...)
	}

	if d.journal == nil {
		return
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		encoded = []byte("{}")
	}
	record := store.Record{
		RequestID: requestID,
		Tool:      name,
		Arguments: encoded,
		IsError:   result.IsError,
		Result:    result.Text(),
		Duration:  elapsed,
		CreatedAt: time.Now(),
	}
	// The caller may already have gone away; the record is still written.
	if err := d.journal.Append(context.WithoutCancel(ctx), record); err != nil {
		d.logger.Error("audit append failed", "request_id", requestID, "error", err)
	}
}
