// Package store implements durable storage for the library on SQLite.
//
// Books are keyed by ASIN, highlights by their derived content token
// with a cascading foreign key to their book. Two auxiliary key-value
// areas hold the session (cookies, region) and the run metadata
// (last sync, last status, failure streak).
//
// Every mutation that belongs to one sync pass for one book commits in
// a single transaction, so interrupted runs never leave a partial mix
// of old and new highlights.
package store
