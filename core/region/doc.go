// Package region holds the per-marketplace lookup tables: base URLs
// for the notebook service and the date layouts used on its pages.
//
// The sync engine consumes this package as a read-only collaborator
// keyed by a region identifier; it never mutates the tables.
package region
