// Package engine provides the goroutine worker pool that builds dataset
// columns in parallel.
package engine
