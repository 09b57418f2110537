package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/VanDung-dev/speedtest-dataset/config"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	want := config.DefaultConfig()
	if cfg.Rows != want.Rows || cfg.WordsPath != want.WordsPath || cfg.Codec != want.Codec {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if cfg.Seed != nil {
		t.Error("Seed should be unset by default")
	}
}

func TestParseFlagsOverrides(t *testing.T) {
	cfg, err := parseFlags([]string{"-rows", "10", "-seed", "7", "-codec", "zstd", "-csv-compression", "lz4"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	if cfg.Rows != 10 {
		t.Errorf("Expected 10 rows, got %d", cfg.Rows)
	}
	if cfg.Seed == nil || *cfg.Seed != 7 {
		t.Errorf("Expected seed 7, got %v", cfg.Seed)
	}
	if cfg.Codec != "zstd" {
		t.Errorf("Expected zstd, got %s", cfg.Codec)
	}
	if cfg.CSVCompression != "lz4" {
		t.Errorf("Expected lz4, got %s", cfg.CSVCompression)
	}
}

func TestParseFlagsConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.yaml")
	if err := os.WriteFile(path, []byte("rows: 300\ncodec: gzip\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := parseFlags([]string{"-config", path, "-codec", "brotli"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	if cfg.Rows != 300 {
		t.Errorf("Expected rows from file (300), got %d", cfg.Rows)
	}
	if cfg.Codec != "brotli" {
		t.Errorf("Expected flag to override file codec, got %s", cfg.Codec)
	}
}

func TestParseFlagsInvalidSeed(t *testing.T) {
	if _, err := parseFlags([]string{"-seed", "-1"}); err == nil {
		t.Error("Expected error for negative seed")
	}
}
