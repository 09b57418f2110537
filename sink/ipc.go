package sink

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// IPCCodec converts records to and from Arrow IPC stream bytes.
type IPCCodec struct {
	allocator memory.Allocator
}

// NewIPCCodec creates a new IPCCodec.
func NewIPCCodec() *IPCCodec {
	return &IPCCodec{
		allocator: memory.DefaultAllocator,
	}
}

// Encode serializes a record as a self-contained IPC stream.
func (c *IPCCodec) Encode(record arrow.Record) ([]byte, error) {
	var buf bytes.Buffer

	writer := ipc.NewWriter(&buf, ipc.WithSchema(record.Schema()), ipc.WithAllocator(c.allocator))
	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to write record: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode deserializes every record of an IPC stream.
// The caller releases the returned records.
func (c *IPCCodec) Decode(data []byte) ([]arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(c.allocator))
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Release()

	var records []arrow.Record
	for reader.Next() {
		record := reader.Record()
		record.Retain()
		records = append(records, record)
	}

	if reader.Err() != nil {
		for _, r := range records {
			r.Release()
		}
		return nil, reader.Err()
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no records in IPC data")
	}

	return records, nil
}
