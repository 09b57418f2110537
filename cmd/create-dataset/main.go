package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/VanDung-dev/speedtest-dataset/api"
	"github.com/VanDung-dev/speedtest-dataset/config"
	"github.com/VanDung-dev/speedtest-dataset/data"
	"github.com/VanDung-dev/speedtest-dataset/dataset"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	log.Printf("%s v%s", data.GeneratorName, data.GeneratorVersion)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := api.NewMetrics("dataset")
	if cfg.MetricsAddress != "" {
		server := api.NewMetricsServer(cfg.MetricsAddress, metrics)
		if err := server.StartAsync(); err != nil {
			log.Fatalf("Failed to start metrics server: %v", err)
		}
		log.Printf("Serving metrics on %s", server.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(shutdownCtx)
		}()
	}

	report, err := dataset.NewRunner(metrics).Run(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create dataset: %v", err)
	}

	for _, out := range report.Outputs {
		log.Printf("  %-8s %s (%d bytes, %v)", out.Format, out.Path, out.Bytes, out.Duration.Round(time.Millisecond))
	}

	if cfg.ReportFile != "" {
		if err := dataset.WriteReport(cfg.ReportFile, report); err != nil {
			log.Fatalf("Failed to save report: %v", err)
		}
		log.Printf("Report saved to %s", cfg.ReportFile)
	}
}

// parseFlags builds the run configuration: defaults, then the optional
// -config file, then any flag given on the command line.
func parseFlags(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("create-dataset", flag.ContinueOnError)

	defaults := config.DefaultConfig()
	configPath := fs.String("config", "", "YAML config file")
	rows := fs.Int("rows", defaults.Rows, "Number of rows to generate")
	words := fs.String("words", defaults.WordsPath, "Word list file")
	outDir := fs.String("out", defaults.OutputDir, "Output directory")
	parquetFile := fs.String("parquet", defaults.ParquetFile, "Parquet output file name")
	csvFile := fs.String("csv", defaults.CSVFile, "CSV output file name")
	codec := fs.String("codec", defaults.Codec, "Parquet codec: snappy, none, gzip, zstd, lz4, brotli")
	csvCompression := fs.String("csv-compression", defaults.CSVCompression, "CSV stream compression: none, lz4, zstd, gzip")
	rowGroup := fs.Int64("row-group", defaults.RowGroupLength, "Maximum rows per Parquet row group")
	workers := fs.Int("workers", defaults.Workers, "Column generation workers")
	publish := fs.String("publish", "", "ZeroMQ endpoint to stream Arrow IPC batches to")
	publishRows := fs.Int64("publish-rows", defaults.PublishBatchRows, "Rows per published batch")
	metricsAddr := fs.String("metrics-addr", "", "Address for the Prometheus /metrics endpoint")
	reportFile := fs.String("report", "", "Write a JSON run report to this file")

	var seed *uint64
	fs.Func("seed", "Random seed (default: random, reported after the run)", func(s string) error {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", s, err)
		}
		seed = &v
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rows":
			cfg.Rows = *rows
		case "words":
			cfg.WordsPath = *words
		case "out":
			cfg.OutputDir = *outDir
		case "parquet":
			cfg.ParquetFile = *parquetFile
		case "csv":
			cfg.CSVFile = *csvFile
		case "codec":
			cfg.Codec = *codec
		case "csv-compression":
			cfg.CSVCompression = *csvCompression
		case "row-group":
			cfg.RowGroupLength = *rowGroup
		case "workers":
			cfg.Workers = *workers
		case "publish":
			cfg.PublishEndpoint = *publish
		case "publish-rows":
			cfg.PublishBatchRows = *publishRows
		case "metrics-addr":
			cfg.MetricsAddress = *metricsAddr
		case "report":
			cfg.ReportFile = *reportFile
		case "seed":
			cfg.Seed = seed
		}
	})

	return cfg, nil
}
