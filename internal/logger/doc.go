// Package logger wraps zap with a process-wide sugared logger, a console
// encoder, an adjustable level, and helpers that carry a named logger
// through a context.Context.
package logger
