// Package config holds the generator configuration: literal defaults,
// an optional YAML file and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/VanDung-dev/speedtest-dataset/sink"
	"github.com/VanDung-dev/speedtest-dataset/wordlist"
)

// Literal defaults of the benchmark dataset.
const (
	DefaultRows           = 1_000_000
	DefaultOutputDir      = "."
	DefaultParquetFile    = "test_file.snappy.parquet"
	DefaultCSVFile        = "test_file.csv"
	DefaultCodec          = "snappy"
	DefaultCSVCompression = "none"
	DefaultWorkers        = 4
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config defines one generator run.
type Config struct {
	Rows      int     `yaml:"rows"`
	WordsPath string  `yaml:"words"`
	Seed      *uint64 `yaml:"seed,omitempty"`
	Workers   int     `yaml:"workers"`

	OutputDir      string `yaml:"output_dir"`
	ParquetFile    string `yaml:"parquet_file"`
	CSVFile        string `yaml:"csv_file"`
	Codec          string `yaml:"codec"`
	CSVCompression string `yaml:"csv_compression"`
	RowGroupLength int64  `yaml:"row_group_length"`

	PublishEndpoint  string `yaml:"publish_endpoint,omitempty"`
	PublishBatchRows int64  `yaml:"publish_batch_rows,omitempty"`

	MetricsAddress string `yaml:"metrics_address,omitempty"`
	ReportFile     string `yaml:"report_file,omitempty"`
}

// DefaultConfig returns the configuration of the standard benchmark run.
func DefaultConfig() *Config {
	return &Config{
		Rows:             DefaultRows,
		WordsPath:        wordlist.DefaultPath,
		Workers:          DefaultWorkers,
		OutputDir:        DefaultOutputDir,
		ParquetFile:      DefaultParquetFile,
		CSVFile:          DefaultCSVFile,
		Codec:            DefaultCodec,
		CSVCompression:   DefaultCSVCompression,
		RowGroupLength:   sink.DefaultRowGroupLength,
		PublishBatchRows: sink.DefaultPublishBatchRows,
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration can produce a dataset.
func (c *Config) Validate() error {
	var errs []error

	if c.Rows <= 0 {
		errs = append(errs, fmt.Errorf("rows must be positive, got %d", c.Rows))
	}
	if c.WordsPath == "" {
		errs = append(errs, errors.New("words path is empty"))
	}
	if strings.TrimSpace(c.ParquetFile) == "" {
		errs = append(errs, errors.New("parquet file name is empty"))
	}
	if strings.TrimSpace(c.CSVFile) == "" {
		errs = append(errs, errors.New("csv file name is empty"))
	}
	if _, err := sink.ParquetCodec(c.Codec); err != nil {
		errs = append(errs, err)
	}
	if _, err := sink.CSVFileName(c.CSVFile, c.CSVCompression); err != nil {
		errs = append(errs, err)
	}
	if c.RowGroupLength < 0 {
		errs = append(errs, fmt.Errorf("row group length must not be negative, got %d", c.RowGroupLength))
	}
	if c.PublishBatchRows < 0 {
		errs = append(errs, fmt.Errorf("publish batch rows must not be negative, got %d", c.PublishBatchRows))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// SeedValue returns the configured seed and whether one was set.
func (c *Config) SeedValue() (uint64, bool) {
	if c.Seed == nil {
		return 0, false
	}
	return *c.Seed, true
}
