// Package observe provides tracing, metrics and structured logging for SDK
// operations.
//
// NewObserver configures OpenTelemetry providers and a zerolog-backed Logger.
// Telemetry adapts them to the interceptor chain: add it to a client's
// components and every invocation produces one client span with an event
// per attempt, the sdk.operation.* and sdk.attempt.total instruments, and a
// completion log line.
//
//	obs, err := observe.NewObserver(ctx, cfg)
//	telemetry, err := observe.TelemetryFromObserver(obs)
//	components, err := orchestrator.NewComponents(
//	    orchestrator.WithEndpointResolver(resolver),
//	    orchestrator.WithInterceptors(telemetry),
//	)
//
// ContextWithLogger attaches the same sink to a context so runtime packages
// that log through zerolog.Ctx share it.
package observe
