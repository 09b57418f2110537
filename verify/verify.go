// Package verify checks written dataset files against the dataset invariants:
// row count, column order, value domains and cross-format equality.
package verify

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/VanDung-dev/speedtest-dataset/data"
	"github.com/VanDung-dev/speedtest-dataset/generate"
	"github.com/VanDung-dev/speedtest-dataset/sink"
	"github.com/VanDung-dev/speedtest-dataset/wordlist"
)

// ErrCheckFailed is wrapped by every failed invariant.
var ErrCheckFailed = errors.New("dataset check failed")

// Expectations describes what a valid dataset looks like.
type Expectations struct {
	Rows          int
	IntLow        int64
	IntHigh       int64
	BoolThreshold float64
	// Words, when set, must contain every string value.
	Words wordlist.WordList
	// Sigmas bounds the true-rate deviation in standard errors.
	Sigmas float64
}

// DefaultExpectations returns the expectations for a default dataset of rows rows.
func DefaultExpectations(rows int, words wordlist.WordList) Expectations {
	return Expectations{
		Rows:          rows,
		IntLow:        generate.DefaultIntLow,
		IntHigh:       generate.DefaultIntHigh,
		BoolThreshold: generate.DefaultBoolThreshold,
		Words:         words,
		Sigmas:        5,
	}
}

// TableStats summarizes one table.
type TableStats struct {
	Rows         int64   `json:"rows"`
	Columns      int     `json:"columns"`
	IntMin       int64   `json:"int_min"`
	IntMax       int64   `json:"int_max"`
	FloatMean    float64 `json:"float_mean"`
	TrueRate     float64 `json:"true_rate"`
	UnknownWords int     `json:"unknown_words"`
}

// CheckTable validates a single table and returns its statistics.
func CheckTable(tbl arrow.Table, exp Expectations) (*TableStats, error) {
	if err := data.ValidateSchema(tbl.Schema(), data.DatasetSchema()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	stats := &TableStats{
		Rows:    tbl.NumRows(),
		Columns: int(tbl.NumCols()),
		IntMin:  math.MaxInt64,
		IntMax:  math.MinInt64,
	}

	var wordSet map[string]struct{}
	if exp.Words != nil {
		wordSet = exp.Words.Set()
	}

	var trues int64
	var floatSum float64

	tr := array.NewTableReader(tbl, 1<<16)
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		ints := rec.Column(0).(*array.Int64)
		floats := rec.Column(1).(*array.Float64)
		strs := rec.Column(2).(*array.String)
		bools := rec.Column(3).(*array.Boolean)

		for i := 0; i < int(rec.NumRows()); i++ {
			v := ints.Value(i)
			stats.IntMin = min(stats.IntMin, v)
			stats.IntMax = max(stats.IntMax, v)
			floatSum += floats.Value(i)
			if bools.Value(i) {
				trues++
			}
			if wordSet != nil {
				if _, ok := wordSet[strs.Value(i)]; !ok {
					stats.UnknownWords++
				}
			}
		}
	}

	if stats.Rows > 0 {
		stats.FloatMean = floatSum / float64(stats.Rows)
		stats.TrueRate = float64(trues) / float64(stats.Rows)
	}

	var errs []error
	if exp.Rows > 0 && stats.Rows != int64(exp.Rows) {
		errs = append(errs, fmt.Errorf("expected %d rows, got %d", exp.Rows, stats.Rows))
	}
	if stats.Rows > 0 && (stats.IntMin < exp.IntLow || stats.IntMax >= exp.IntHigh) {
		errs = append(errs, fmt.Errorf("int64 values [%d, %d] outside [%d, %d)",
			stats.IntMin, stats.IntMax, exp.IntLow, exp.IntHigh))
	}
	if stats.UnknownWords > 0 {
		errs = append(errs, fmt.Errorf("%d string values are not in the word list", stats.UnknownWords))
	}
	if exp.Sigmas > 0 && stats.Rows > 0 {
		p := 1 - exp.BoolThreshold
		tolerance := exp.Sigmas * math.Sqrt(p*(1-p)/float64(stats.Rows))
		if math.Abs(stats.TrueRate-p) > tolerance {
			errs = append(errs, fmt.Errorf("true rate %.4f outside %.4f ± %.4f", stats.TrueRate, p, tolerance))
		}
	}

	if len(errs) > 0 {
		return stats, fmt.Errorf("%w: %w", ErrCheckFailed, errors.Join(errs...))
	}
	return stats, nil
}

// CompareTables checks that two tables hold the same rows in the same order.
// Schema metadata is ignored.
func CompareTables(a, b arrow.Table) error {
	if a.NumRows() != b.NumRows() {
		return fmt.Errorf("%w: row counts differ: %d vs %d", ErrCheckFailed, a.NumRows(), b.NumRows())
	}
	if a.NumCols() != b.NumCols() {
		return fmt.Errorf("%w: column counts differ: %d vs %d", ErrCheckFailed, a.NumCols(), b.NumCols())
	}

	for i := 0; i < int(a.NumCols()); i++ {
		if !array.ChunkedEqual(a.Column(i).Data(), b.Column(i).Data()) {
			return fmt.Errorf("%w: column %s differs", ErrCheckFailed, a.Schema().Field(i).Name)
		}
	}
	return nil
}

// Result is the outcome of checking a pair of output files.
type Result struct {
	Parquet    *TableStats `json:"parquet"`
	CSV        *TableStats `json:"csv"`
	Consistent bool        `json:"consistent"`
}

// Files checks the Parquet and CSV outputs and their cross-format consistency.
func Files(ctx context.Context, parquetPath, csvPath string, exp Expectations) (*Result, error) {
	pq, err := sink.ReadParquet(ctx, parquetPath)
	if err != nil {
		return nil, err
	}
	defer pq.Release()

	csvTbl, err := sink.ReadCSV(csvPath, data.DatasetSchema())
	if err != nil {
		return nil, err
	}
	defer csvTbl.Release()

	result := &Result{}
	var errs []error

	if result.Parquet, err = CheckTable(pq, exp); err != nil {
		errs = append(errs, fmt.Errorf("parquet: %w", err))
	}
	if result.CSV, err = CheckTable(csvTbl, exp); err != nil {
		errs = append(errs, fmt.Errorf("csv: %w", err))
	}
	if err := CompareTables(pq, csvTbl); err != nil {
		errs = append(errs, fmt.Errorf("cross-format: %w", err))
	} else {
		result.Consistent = true
	}

	return result, errors.Join(errs...)
}
