// Package scrape fetches books and highlights from the Kindle notebook
// service.
//
// Two strategies implement the same Source interface: a structured one
// that reads the JSON endpoints behind the notebook page, and a
// document one that parses the rendered HTML. New wires them together
// so the document strategy takes over whenever the structured one
// fails for any reason other than an authentication rejection, a
// pagination abort, or a cancelled context.
//
// Every page fetch runs under the retry policy with transient errors
// (timeouts, connection failures, 5xx responses) retried and anything
// else surfaced immediately. Pagination is bounded per book: a
// repeated continuation token or an exhausted page budget aborts the
// fetch with a PaginationLoopError.
package scrape
