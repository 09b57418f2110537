// Package dataset runs the benchmark dataset generator end to end: load the
// word list, build the columns, assemble the table and write every output.
package dataset
