// Package models defines the persisted entities of the library:
// books (collections) and highlights (items), plus the composite
// shapes returned by listings and search.
package models
