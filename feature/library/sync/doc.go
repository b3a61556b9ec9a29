// Package sync orchestrates a full synchronization run: it builds an
// authenticated client, fetches the remote book list, then reconciles
// each book's highlights against the store over a bounded worker pool.
//
// Failures are isolated per book; a run only aborts outright when the
// session is rejected. Every run records its outcome in the store's
// metadata area, and consecutive authentication failures eventually
// invalidate the stored session.
package sync
