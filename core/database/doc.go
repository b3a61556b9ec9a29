// Package database provides the SQLite connection factory used by the
// store. It is deliberately thin: schema and queries live with the
// domain packages, this package only knows how to open the file with
// the right pragmas.
package database
