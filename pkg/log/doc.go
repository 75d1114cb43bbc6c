// Package log provides the structured logger shared by the provider packages.
//
// Components receive a Logger through their options and derive a named child
// with WithName. ZapLogger writes console, json or logfmt output; NoopLogger
// is the default when nothing is configured; SpanLogger mirrors entries onto
// an OpenTelemetry span and is installed automatically by SetContextLogger
// when the context carries a valid span.
//
//	lg := log.NewZapLogger(log.Config{Format: "logfmt", Level: log.LevelDebug})
//	ctx = log.SetContextLogger(ctx, lg.WithName("provider"))
//	log.FromContext(ctx).Info("accounts updated", "chainId", 1)
//
// NewSystemLogger exposes the same interface over the ipfs go-log registry
// for hosts that prefer per-subsystem level control.
package log
