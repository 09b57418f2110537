package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// DefaultRowGroupLength is the maximum number of rows per Parquet row group.
const DefaultRowGroupLength = 1 << 20

// parquetCodecs maps codec names to Parquet compression codecs.
var parquetCodecs = map[string]compress.Compression{
	"none":   compress.Codecs.Uncompressed,
	"snappy": compress.Codecs.Snappy,
	"gzip":   compress.Codecs.Gzip,
	"zstd":   compress.Codecs.Zstd,
	"lz4":    compress.Codecs.Lz4Raw,
	"brotli": compress.Codecs.Brotli,
}

// ParquetCodec resolves a codec name such as "snappy".
func ParquetCodec(name string) (compress.Compression, error) {
	codec, ok := parquetCodecs[strings.ToLower(name)]
	if !ok {
		return compress.Codecs.Uncompressed, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return codec, nil
}

// ParquetWriter writes records to a Parquet file.
type ParquetWriter struct {
	allocator      memory.Allocator
	codec          compress.Compression
	rowGroupLength int64
}

// NewParquetWriter creates a ParquetWriter for the named codec.
func NewParquetWriter(codecName string, rowGroupLength int64) (*ParquetWriter, error) {
	codec, err := ParquetCodec(codecName)
	if err != nil {
		return nil, err
	}
	if rowGroupLength <= 0 {
		rowGroupLength = DefaultRowGroupLength
	}
	return &ParquetWriter{
		allocator:      memory.DefaultAllocator,
		codec:          codec,
		rowGroupLength: rowGroupLength,
	}, nil
}

// Codec returns the compression codec used for every column.
func (w *ParquetWriter) Codec() compress.Compression {
	return w.codec
}

// WriteFile writes record to path and returns the number of bytes written.
// The Arrow schema, including its metadata, is stored in the file footer.
func (w *ParquetWriter) WriteFile(path string, record arrow.Record) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}

	n, err := w.Write(f, record)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: failed to close %s: %v", ErrOutputUnwritable, path, closeErr)
	}
	return n, err
}

// Write encodes record as a Parquet file into out.
func (w *ParquetWriter) Write(out io.Writer, record arrow.Record) (int64, error) {
	cw := &countingWriter{w: out}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(w.codec),
		parquet.WithMaxRowGroupLength(w.rowGroupLength),
		parquet.WithAllocator(w.allocator),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
		pqarrow.WithAllocator(w.allocator),
	)

	fw, err := pqarrow.NewFileWriter(record.Schema(), cw, props, arrowProps)
	if err != nil {
		return cw.n, fmt.Errorf("%w: failed to create parquet writer: %v", ErrOutputUnwritable, err)
	}

	if err := fw.Write(record); err != nil {
		_ = fw.Close()
		return cw.n, fmt.Errorf("%w: failed to write record: %v", ErrOutputUnwritable, err)
	}

	if err := fw.Close(); err != nil {
		return cw.n, fmt.Errorf("%w: failed to close parquet writer: %v", ErrOutputUnwritable, err)
	}

	return cw.n, nil
}

// ParquetInfo summarizes the footer of a Parquet file.
type ParquetInfo struct {
	Rows        int64
	RowGroups   int
	Columns     int
	Compression []compress.Compression
}

// InspectParquet reads the footer of the Parquet file at path.
func InspectParquet(path string) (*ParquetInfo, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer rdr.Close()

	md := rdr.MetaData()
	info := &ParquetInfo{
		Rows:      rdr.NumRows(),
		RowGroups: rdr.NumRowGroups(),
		Columns:   md.Schema.NumColumns(),
	}

	if info.RowGroups > 0 {
		rg := md.RowGroup(0)
		for i := 0; i < rg.NumColumns(); i++ {
			chunk, err := rg.ColumnChunk(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read column chunk %d: %w", i, err)
			}
			info.Compression = append(info.Compression, chunk.Compression())
		}
	}

	return info, nil
}

// ReadParquet loads the Parquet file at path as an Arrow table.
func ReadParquet(ctx context.Context, path string) (arrow.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{Parallel: true}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet table: %w", err)
	}
	return tbl, nil
}
