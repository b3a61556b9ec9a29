// Package utils provides common utility functions shared across the
// application: slug and filename normalization used by the exporter.
package utils
