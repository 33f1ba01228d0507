package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taskbridge/internal/apierror"
	"taskbridge/internal/metrics"
	"taskbridge/internal/output"
	"taskbridge/internal/tools"
)

// Result is the rendered outcome of one tool call.
type Result struct {
	Payload []byte
	IsError bool
	Code    apierror.Code // empty on success
}

// Dispatcher looks up tools, runs them and renders their results.
// It is the only place where failures are classified.
type Dispatcher struct {
	registry *tools.Registry
	env      *tools.Env
	logger   *slog.Logger
	newID    func() string
}

// NewDispatcher creates a new dispatcher over registry.
func NewDispatcher(registry *tools.Registry, env *tools.Env, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		env:      env,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Registry returns the catalog the dispatcher serves.
func (d *Dispatcher) Registry() *tools.Registry {
	return d.registry
}

// Call runs the named tool with raw JSON arguments.
func (d *Dispatcher) Call(ctx context.Context, name string, args json.RawMessage) Result {
	start := time.Now()
	call := apierror.Call{
		Operation: name,
		Params:    paramsOf(args),
		RequestID: d.newID(),
	}
	logger := d.logger.With("request_id", call.RequestID, "tool", name)

	res := d.run(apierror.WithCall(ctx, call), call, args)

	elapsed := time.Since(start)
	code := "ok"
	if res.IsError {
		code = string(res.Code)
	}
	metrics.ToolCalls.WithLabelValues(name, code).Inc()
	metrics.ToolDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if res.IsError {
		logger.Warn("tool call failed", "duration", elapsed, "code", res.Code)
	} else {
		logger.Info("tool call", "duration", elapsed)
	}
	return res
}

func (d *Dispatcher) run(ctx context.Context, call apierror.Call, args json.RawMessage) Result {
	tool, ok := d.registry.Find(call.Operation)
	if !ok {
		return failure(&apierror.ActionableError{
			Message:     fmt.Sprintf("Unknown tool '%s'", call.Operation),
			Code:        apierror.CodeInvalidRequest,
			Suggestion:  "Call one of the tools in the catalog.",
			ValidValues: d.names(),
		})
	}

	v, err := tool.Run(ctx, d.env, args)
	if err != nil {
		rc := apierror.RequestContext{
			Operation: call.Operation,
			Params:    call.Params,
			RequestID: call.RequestID,
		}
		return failure(apierror.FromError(err, rc))
	}

	payload, err := output.FormatResult(v)
	if err != nil {
		return failure(&apierror.ActionableError{
			Message:    err.Error(),
			Code:       apierror.CodeInternal,
			Suggestion: "The result could not be encoded. Report this problem.",
		})
	}
	return Result{Payload: payload}
}

func (d *Dispatcher) names() []string {
	all := d.registry.All()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name()
	}
	return names
}

func failure(ae *apierror.ActionableError) Result {
	return Result{Payload: output.FormatError(ae), IsError: true, Code: ae.Code}
}

// paramsOf decodes the caller's arguments for use in error messages.
// Arguments that are not a JSON object yield nil.
func paramsOf(args json.RawMessage) map[string]any {
	var params map[string]any
	if err := json.Unmarshal(args, &params); err != nil {
		return nil
	}
	return params
}

// Handle adapts Call to the transport's handler signature.
func (d *Dispatcher) Handle(ctx context.Context, name string, args json.RawMessage) ([]byte, bool) {
	res := d.Call(ctx, name, args)
	return res.Payload, res.IsError
}
