package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Rows != 1000000 {
		t.Errorf("Expected 1000000 rows, got %d", cfg.Rows)
	}
	if cfg.WordsPath != "/usr/share/dict/words" {
		t.Errorf("Expected /usr/share/dict/words, got %s", cfg.WordsPath)
	}
	if cfg.ParquetFile != "test_file.snappy.parquet" {
		t.Errorf("Expected test_file.snappy.parquet, got %s", cfg.ParquetFile)
	}
	if cfg.CSVFile != "test_file.csv" {
		t.Errorf("Expected test_file.csv, got %s", cfg.CSVFile)
	}
	if cfg.Codec != "snappy" {
		t.Errorf("Expected snappy, got %s", cfg.Codec)
	}
	if _, ok := cfg.SeedValue(); ok {
		t.Error("Default config should be unseeded")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.yaml")
	content := "rows: 500\nseed: 42\ncodec: zstd\ncsv_compression: lz4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := DefaultConfig()
	want.Rows = 500
	seed := uint64(42)
	want.Seed = &seed
	want.Codec = "zstd"
	want.CSVCompression = "lz4"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("rows: [1, 2"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rows", func(c *Config) { c.Rows = 0 }},
		{"empty words", func(c *Config) { c.WordsPath = "" }},
		{"empty parquet name", func(c *Config) { c.ParquetFile = " " }},
		{"empty csv name", func(c *Config) { c.CSVFile = "" }},
		{"unknown codec", func(c *Config) { c.Codec = "lzo" }},
		{"unknown csv compression", func(c *Config) { c.CSVCompression = "bzip2" }},
		{"negative row group", func(c *Config) { c.RowGroupLength = -1 }},
		{"negative publish batch", func(c *Config) { c.PublishBatchRows = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
