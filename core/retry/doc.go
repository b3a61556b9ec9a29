// Package retry provides an explicit retry policy for network calls.
//
// The policy is a plain value (max attempts, base delay, backoff
// multiplier, retryable predicate) applied at each call site rather
// than an implicit decorator, so the caller always sees which calls
// are retried and which errors are treated as permanent.
package retry
