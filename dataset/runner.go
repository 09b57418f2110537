package dataset

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"

	"github.com/VanDung-dev/speedtest-dataset/api"
	"github.com/VanDung-dev/speedtest-dataset/config"
	"github.com/VanDung-dev/speedtest-dataset/data"
	"github.com/VanDung-dev/speedtest-dataset/engine"
	"github.com/VanDung-dev/speedtest-dataset/generate"
	"github.com/VanDung-dev/speedtest-dataset/sink"
	"github.com/VanDung-dev/speedtest-dataset/wordlist"
)

// Output formats.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// The two failure kinds of a run.
var (
	ErrInputUnavailable = wordlist.ErrInputUnavailable
	ErrOutputUnwritable = sink.ErrOutputUnwritable
)

// Runner executes generator runs.
type Runner struct {
	metrics   *api.Metrics
	logger    *log.Logger
	allocator memory.Allocator
}

// NewRunner creates a Runner. A nil metrics gets a private instance.
func NewRunner(metrics *api.Metrics) *Runner {
	if metrics == nil {
		metrics = api.NewMetrics("dataset")
	}
	return &Runner{
		metrics:   metrics,
		logger:    log.Default(),
		allocator: memory.DefaultAllocator,
	}
}

// WithLogger sets the progress logger.
func (r *Runner) WithLogger(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	r.logger = logger
	return r
}

// WithAllocator sets the allocator used for the column buffers.
func (r *Runner) WithAllocator(mem memory.Allocator) *Runner {
	r.allocator = mem
	return r
}

// Run generates the dataset described by cfg and writes every output.
// The word list is loaded before any output is created, so an unavailable
// input leaves the output directory untouched.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (report *Report, err error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordRun(err == nil, time.Since(start))
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.logger.Printf("Loading word list from %s", cfg.WordsPath)
	words, err := wordlist.Load(cfg.WordsPath)
	if err != nil {
		return nil, err
	}

	seed, seeded := cfg.SeedValue()
	if !seeded {
		seed = generate.NewSeed()
	}

	report = &Report{
		RunID:     uuid.NewString(),
		Seed:      seed,
		Seeded:    seeded,
		Rows:      cfg.Rows,
		Words:     words.Len(),
		StartedAt: start,
	}

	record, err := r.generate(ctx, cfg, words, report)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}

	if err := r.writeParquet(cfg, record, report); err != nil {
		return nil, err
	}
	if err := r.writeCSV(cfg, record, report); err != nil {
		return nil, err
	}

	if cfg.PublishEndpoint != "" {
		if err := r.publish(ctx, cfg, record, report); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)
	r.logger.Printf("Run %s finished in %v (seed %d)", report.RunID, report.Duration, report.Seed)
	return report, nil
}

func (r *Runner) generate(ctx context.Context, cfg *config.Config, words wordlist.WordList, report *Report) (arrow.Record, error) {
	pool := engine.NewWorkerPool("columns", cfg.Workers, len(data.ColumnNames))
	defer pool.Shutdown()

	r.logger.Printf("Generating %d rows from %d words (seed %d)", cfg.Rows, words.Len(), report.Seed)

	gen := generate.NewGenerator(pool, r.allocator)
	schema := data.DatasetSchemaWithMetadata(report.RunID, report.Seed, cfg.Rows)

	record, timings, err := gen.Record(ctx, schema, generate.DefaultOptions(cfg.Rows, report.Seed), words)
	if err != nil {
		return nil, err
	}

	for _, timing := range timings {
		r.metrics.RecordColumn(timing.Name, timing.Rows, timing.Duration)
		report.Columns = append(report.Columns, ColumnReport{
			Name:     timing.Name,
			Rows:     timing.Rows,
			Duration: timing.Duration,
			WorkerID: timing.WorkerID,
		})
	}

	return record, nil
}

func (r *Runner) writeParquet(cfg *config.Config, record arrow.Record, report *Report) error {
	w, err := sink.NewParquetWriter(cfg.Codec, cfg.RowGroupLength)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.OutputDir, cfg.ParquetFile)
	r.logger.Printf("Writing %s (%s)", path, w.Codec())

	start := time.Now()
	n, err := w.WriteFile(path, record)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	r.metrics.RecordWrite(FormatParquet, n, elapsed)
	report.Outputs = append(report.Outputs, OutputReport{
		Format:      FormatParquet,
		Path:        path,
		Compression: cfg.Codec,
		Bytes:       n,
		Duration:    elapsed,
	})
	return nil
}

func (r *Runner) writeCSV(cfg *config.Config, record arrow.Record, report *Report) error {
	w, err := sink.NewCSVWriter(cfg.CSVCompression)
	if err != nil {
		return err
	}

	name, err := sink.CSVFileName(cfg.CSVFile, w.Compression())
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.OutputDir, name)
	r.logger.Printf("Writing %s", path)

	start := time.Now()
	n, err := w.WriteFile(path, record)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	r.metrics.RecordWrite(FormatCSV, n, elapsed)
	report.Outputs = append(report.Outputs, OutputReport{
		Format:      FormatCSV,
		Path:        path,
		Compression: w.Compression(),
		Bytes:       n,
		Duration:    elapsed,
	})
	return nil
}

func (r *Runner) publish(ctx context.Context, cfg *config.Config, record arrow.Record, report *Report) error {
	r.logger.Printf("Publishing to %s", cfg.PublishEndpoint)

	pub, err := sink.NewPublisher(ctx, cfg.PublishEndpoint, cfg.PublishBatchRows)
	if err != nil {
		return err
	}
	defer pub.Close()

	stats, err := pub.Publish(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to publish dataset: %w", err)
	}

	r.metrics.RecordPublish(stats.Messages)
	report.Published = &PublishReport{
		Endpoint: cfg.PublishEndpoint,
		Messages: stats.Messages,
		Rows:     stats.Rows,
		Bytes:    stats.Bytes,
	}
	return nil
}
