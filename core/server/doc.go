// Package server holds the HTTP server configuration consumed by the
// serve command and the middleware stack.
package server
