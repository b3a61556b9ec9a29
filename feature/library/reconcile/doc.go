// Package reconcile diffs a fresh remote fetch against the stored
// highlights of a book. The diff is keyed by the content-derived
// highlight ID and classifies every row as an insert, an update or a
// delete; applying the result twice is a no-op.
package reconcile
