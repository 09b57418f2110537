package sink

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CSV stream compressions and the file suffix each one appends.
var csvSuffixes = map[string]string{
	"none": "",
	"lz4":  ".lz4",
	"zstd": ".zst",
	"gzip": ".gz",
}

// defaultReadChunk is the number of CSV rows decoded per record when reading back.
const defaultReadChunk = 1 << 16

// CSVFileName returns name with the suffix of the given stream compression.
func CSVFileName(name, compression string) (string, error) {
	suffix, ok := csvSuffixes[strings.ToLower(compression)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCodec, compression)
	}
	return name + suffix, nil
}

// CSVWriter writes records as delimited text without a header row.
type CSVWriter struct {
	compression string
	comma       rune
}

// NewCSVWriter creates a CSVWriter. compression is one of none, lz4, zstd, gzip.
func NewCSVWriter(compression string) (*CSVWriter, error) {
	compression = strings.ToLower(compression)
	if compression == "" {
		compression = "none"
	}
	if _, ok := csvSuffixes[compression]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, compression)
	}
	return &CSVWriter{compression: compression, comma: ','}, nil
}

// Compression returns the stream compression name.
func (w *CSVWriter) Compression() string {
	return w.compression
}

// WriteFile writes record to path and returns the number of bytes written to disk.
func (w *CSVWriter) WriteFile(path string, record arrow.Record) (int64, error) {
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

// Write encodes record into out, compressing the stream if configured.
func (w *CSVWriter) Write(out io.Writer, record arrow.Record) (int64, error) {
	cw := &countingWriter{w: out}

	stream, err := w.compressor(cw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}

	enc := csv.NewWriter(stream, record.Schema(),
		csv.WithHeader(false),
		csv.WithComma(w.comma),
	)
	if err := enc.Write(record); err != nil {
		_ = stream.Close()
		return cw.n, fmt.Errorf("%w: failed to write csv: %v", ErrOutputUnwritable, err)
	}
	if err := enc.Flush(); err != nil {
		_ = stream.Close()
		return cw.n, fmt.Errorf("%w: failed to flush csv: %v", ErrOutputUnwritable, err)
	}
	if err := stream.Close(); err != nil {
		return cw.n, fmt.Errorf("%w: failed to finish %s stream: %v", ErrOutputUnwritable, w.compression, err)
	}

	return cw.n, nil
}

func (w *CSVWriter) compressor(out io.Writer) (io.WriteCloser, error) {
	switch w.compression {
	case "lz4":
		return lz4.NewWriter(out), nil
	case "zstd":
		return zstd.NewWriter(out)
	case "gzip":
		return gzip.NewWriter(out), nil
	default:
		return nopWriteCloser{out}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// ReadCSV loads a headerless CSV file written by CSVWriter as an Arrow table.
// The stream compression is detected from the file suffix.
func ReadCSV(path string, schema *arrow.Schema) (arrow.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	in, closeIn, err := decompressor(path, f)
	if err != nil {
		return nil, err
	}
	defer closeIn()

	rdr := csv.NewReader(in, schema,
		csv.WithHeader(false),
		csv.WithChunk(defaultReadChunk),
		csv.WithAllocator(memory.DefaultAllocator),
	)
	defer rdr.Release()

	var records []arrow.Record
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	return array.NewTableFromRecords(schema, records), nil
}

func decompressor(path string, r io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(path, ".lz4"):
		return lz4.NewReader(r), func() {}, nil
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return dec, dec.Close, nil
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return gz, func() { _ = gz.Close() }, nil
	default:
		return r, func() {}, nil
	}
}
