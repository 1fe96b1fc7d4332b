package drivekit

import "context"

// Hook provides observability callpoints around each Call execution.
type Hook interface {
	OnCallStart(ctx context.Context, info CallInfo) (context.Context, HookToken)
	OnCallEnd(ctx context.Context, token HookToken, info CallInfo, err error)
}

// HookToken is an opaque value returned by OnCallStart and passed back to
// OnCallEnd. Only meaningful to the Hook that created it.
type HookToken interface{}

// CallInfo carries method metadata passed to hooks.
type CallInfo struct {
	Method    string    // Owner.Field of the service method
	Operation Operation // operation kind
	Location  Location  // target location, zero when the request could not be built
}

type noopHook struct{}

func (noopHook) OnCallStart(ctx context.Context, _ CallInfo) (context.Context, HookToken) {
	return ctx, nil
}

func (noopHook) OnCallEnd(context.Context, HookToken, CallInfo, error) {}
