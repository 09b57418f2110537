// Package data provides the Arrow schema of the benchmark dataset and the
// assembly of generated columns into a single record.
// This package implements:
// - Dataset schema definition with run metadata
// - Column-to-record assembly with length checks
// - Schema validation for records read back from disk
package data
