// Package interceptor provides the lifecycle hook chain and the per-operation
// context envelope used by the orchestrator.
//
// An Interceptor receives every Hook of an operation and handles the ones it
// cares about. Hooks are grouped into per-operation hooks (execution,
// serialization, completion) and per-attempt hooks (signing, transmit,
// deserialization). Within one hook, interceptors run in registration order
// and all of them run even if one fails; the last error wins.
//
// # Usage
//
//	stamp := interceptor.On("request-id", func(ctx context.Context, ic *interceptor.Context) error {
//	    ic.Request().Header.Set("X-Request-Id", newID())
//	    return nil
//	}, interceptor.ModifyBeforeSigning)
//
//	chain := interceptor.NewChain(stamp, telemetry)
//
// Cross-cutting values travel in the context's Properties bag using typed keys:
//
//	var startKey = interceptor.NewKey[time.Time]("start")
//	interceptor.Set(ic.Properties(), startKey, time.Now())
package interceptor
