// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different
// environments (development vs production) and integrates with the Fiber
// trigger server.
//
// # Context Awareness
//
// The WithRayID helper extracts the request id from a Fiber context and
// attaches it to the log entry, so every log line of a triggered sync run
// can be correlated with the request that started it.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
package logger
