// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different
// environments (development vs production) and integrates with the
// Fiber web front end.
//
// # Context Awareness
//
// The WithRayID helper extracts the RayID from a Fiber context and
// attaches it to the log entry, so all logs related to one request can
// be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
package logger
