// Package library is the application's main feature: it owns the
// stored Kindle library and exposes it over HTTP and to the CLI
// commands. The heavy lifting lives in the subpackages (auth, scrape,
// reconcile, sync, store, export); this package wires them into a
// service and a set of routes.
package library
