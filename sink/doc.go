// Package sink writes the dataset record to its destinations.
// This package implements:
// - Parquet file writer with a configurable compression codec
// - Headerless CSV writer with optional stream compression
// - Arrow IPC serialization and a ZeroMQ publisher for streaming batches
// - Readers that load written files back as Arrow tables
package sink
