package generate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/VanDung-dev/speedtest-dataset/data"
	"github.com/VanDung-dev/speedtest-dataset/engine"
	"github.com/VanDung-dev/speedtest-dataset/wordlist"
)

// Distribution defaults.
const (
	DefaultIntLow        = 0
	DefaultIntHigh       = 100
	DefaultFloatShift    = 100.0
	DefaultBoolThreshold = 0.9
)

// ErrInvalidOptions is returned for options that cannot produce a dataset.
var ErrInvalidOptions = errors.New("invalid generator options")

// Options controls the size and distributions of a generated dataset.
type Options struct {
	Rows          int
	Seed          uint64
	IntLow        int64
	IntHigh       int64
	FloatShift    float64
	BoolThreshold float64
}

// DefaultOptions returns options for rows rows with the given seed.
func DefaultOptions(rows int, seed uint64) Options {
	return Options{
		Rows:          rows,
		Seed:          seed,
		IntLow:        DefaultIntLow,
		IntHigh:       DefaultIntHigh,
		FloatShift:    DefaultFloatShift,
		BoolThreshold: DefaultBoolThreshold,
	}
}

// Validate checks that the options describe a non-empty dataset.
func (o Options) Validate() error {
	if o.Rows <= 0 {
		return fmt.Errorf("%w: rows must be positive, got %d", ErrInvalidOptions, o.Rows)
	}
	if o.IntHigh <= o.IntLow {
		return fmt.Errorf("%w: empty integer range [%d, %d)", ErrInvalidOptions, o.IntLow, o.IntHigh)
	}
	if o.BoolThreshold < 0 || o.BoolThreshold > 1 {
		return fmt.Errorf("%w: bool threshold %v outside [0, 1]", ErrInvalidOptions, o.BoolThreshold)
	}
	return nil
}

// NewSeed draws a fresh seed for an unseeded run.
func NewSeed() uint64 {
	return rand.Uint64()
}

// ColumnStream returns the random stream used for the column at index.
// Streams for one seed are independent of each other and of scheduling.
func ColumnStream(seed uint64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(index)))
}

// ColumnTiming records how long one column took to build.
type ColumnTiming struct {
	Name     string
	Rows     int
	Duration time.Duration
	WorkerID int
}

// Generator builds dataset columns on a worker pool.
type Generator struct {
	pool      *engine.WorkerPool
	allocator memory.Allocator
}

// NewGenerator creates a Generator that runs its builds on pool.
func NewGenerator(pool *engine.WorkerPool, mem memory.Allocator) *Generator {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Generator{
		pool:      pool,
		allocator: mem,
	}
}

// Columns builds the four dataset columns in schema order.
// The caller releases the returned arrays.
func (g *Generator) Columns(ctx context.Context, opts Options, words wordlist.WordList) ([]arrow.Array, []ColumnTiming, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	if len(words) == 0 {
		return nil, nil, wordlist.ErrEmptyWordList
	}

	mem := g.allocator
	builds := []engine.BuildFunc{
		func(ctx context.Context) (arrow.Array, error) {
			return Int64Uniform(ctx, mem, ColumnStream(opts.Seed, 0), opts.Rows, opts.IntLow, opts.IntHigh)
		},
		func(ctx context.Context) (arrow.Array, error) {
			return Float64Normal(ctx, mem, ColumnStream(opts.Seed, 1), opts.Rows, opts.FloatShift)
		},
		func(ctx context.Context) (arrow.Array, error) {
			return StringChoice(ctx, mem, ColumnStream(opts.Seed, 2), opts.Rows, words)
		},
		func(ctx context.Context) (arrow.Array, error) {
			return BoolThreshold(ctx, mem, ColumnStream(opts.Seed, 3), opts.Rows, opts.BoolThreshold)
		},
	}

	tasks := make([]*engine.Task, len(builds))
	for i, fn := range builds {
		tasks[i] = engine.NewTask(data.ColumnNames[i], i, fn)
	}

	results, err := g.pool.RunAll(ctx, tasks)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate columns: %w", err)
	}

	columns := make([]arrow.Array, len(results))
	timings := make([]ColumnTiming, len(results))
	for i, res := range results {
		columns[i] = res.Array
		timings[i] = ColumnTiming{
			Name:     res.TaskID,
			Rows:     res.Array.Len(),
			Duration: res.Duration,
			WorkerID: res.WorkerID,
		}
	}

	return columns, timings, nil
}

// Record builds the columns and assembles them into one record with schema.
func (g *Generator) Record(ctx context.Context, schema *arrow.Schema, opts Options, words wordlist.WordList) (arrow.Record, []ColumnTiming, error) {
	columns, timings, err := g.Columns(ctx, opts, words)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		for _, col := range columns {
			col.Release()
		}
	}()

	record, err := data.NewRecord(schema, columns, opts.Rows)
	if err != nil {
		return nil, nil, err
	}
	return record, timings, nil
}
