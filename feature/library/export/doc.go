// Package export writes stored books and highlights to disk as
// Markdown, JSON or CSV, one file per book. Hidden highlights never
// appear in exports.
package export
