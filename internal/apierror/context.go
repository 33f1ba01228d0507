package apierror

import "context"

type callKey struct{}

// Call identifies the tool invocation that outbound requests belong to.
type Call struct {
	Operation string
	Params    map[string]any
	RequestID string
}

// WithCall attaches call to ctx.
func WithCall(ctx context.Context, call Call) context.Context {
	return context.WithValue(ctx, callKey{}, call)
}

// CallFromContext returns the call attached to ctx, if any.
func CallFromContext(ctx context.Context) (Call, bool) {
	call, ok := ctx.Value(callKey{}).(Call)
	return call, ok
}

// NewRequestContext builds the context of one outbound request.
func NewRequestContext(ctx context.Context, resourceType, resourceID string) RequestContext {
	call, _ := CallFromContext(ctx)
	return RequestContext{
		Operation:    call.Operation,
		Params:       call.Params,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    call.RequestID,
	}
}
