package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/goccy/go-json"

	"github.com/VanDung-dev/speedtest-dataset/config"
	"github.com/VanDung-dev/speedtest-dataset/data"
	"github.com/VanDung-dev/speedtest-dataset/sink"
	"github.com/VanDung-dev/speedtest-dataset/verify"
	"github.com/VanDung-dev/speedtest-dataset/wordlist"
)

// VerifyConfig holds configuration for a verification run.
type VerifyConfig struct {
	ParquetFile string
	CSVFile     string
	WordsPath   string
	Rows        int
	Listen      string
	Timeout     time.Duration
	ReportFile  string
}

// VerifyReport is the saved JSON report.
type VerifyReport struct {
	Files     *verify.Result     `json:"files,omitempty"`
	Published *verify.TableStats `json:"published,omitempty"`
	Passed    bool               `json:"passed"`
	Errors    []string           `json:"errors,omitempty"`
	CheckedAt time.Time          `json:"checked_at"`
}

func main() {
	cfg := parseFlags()

	fmt.Println("=== Dataset Verification ===")
	fmt.Printf("Parquet: %s\n", cfg.ParquetFile)
	fmt.Printf("CSV: %s\n", cfg.CSVFile)
	fmt.Printf("Rows: %d\n", cfg.Rows)
	fmt.Println()

	words, err := wordlist.Load(cfg.WordsPath)
	if err != nil {
		log.Fatalf("Failed to load word list: %v", err)
	}
	exp := verify.DefaultExpectations(cfg.Rows, words)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	report := VerifyReport{CheckedAt: time.Now().UTC()}

	if cfg.Listen != "" {
		stats, err := checkPublished(ctx, cfg.Listen, exp)
		report.Published = stats
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
	} else {
		result, err := verify.Files(ctx, cfg.ParquetFile, cfg.CSVFile, exp)
		report.Files = result
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
	}
	report.Passed = len(report.Errors) == 0

	printResults(report)

	if cfg.ReportFile != "" {
		saveReport(cfg.ReportFile, report)
	}

	if !report.Passed {
		os.Exit(1)
	}
}

func parseFlags() VerifyConfig {
	cfg := VerifyConfig{}

	flag.StringVar(&cfg.ParquetFile, "parquet", config.DefaultParquetFile, "Parquet file to check")
	flag.StringVar(&cfg.CSVFile, "csv", config.DefaultCSVFile, "CSV file to check (.lz4/.zst/.gz are decompressed)")
	flag.StringVar(&cfg.WordsPath, "words", wordlist.DefaultPath, "Word list the dataset was drawn from")
	flag.IntVar(&cfg.Rows, "rows", config.DefaultRows, "Expected row count")
	flag.StringVar(&cfg.Listen, "listen", "", "Receive a published dataset on this endpoint instead of reading files")
	flag.DurationVar(&cfg.Timeout, "timeout", 5*time.Minute, "Overall timeout")
	flag.StringVar(&cfg.ReportFile, "o", "", "Output report file (JSON)")

	flag.Parse()

	return cfg
}

func checkPublished(ctx context.Context, endpoint string, exp verify.Expectations) (*verify.TableStats, error) {
	receiver, err := sink.NewReceiver(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer receiver.Close()

	log.Printf("Waiting for dataset on %s", receiver.Endpoint())
	records, err := receiver.Collect()
	if err != nil {
		return nil, err
	}
	log.Printf("Received %d batches", len(records))

	tbl := array.NewTableFromRecords(data.DatasetSchema(), records)
	for _, rec := range records {
		rec.Release()
	}
	defer tbl.Release()

	return verify.CheckTable(tbl, exp)
}

func printTableStats(name string, stats *verify.TableStats) {
	if stats == nil {
		return
	}
	fmt.Printf("%s:\n", name)
	fmt.Printf("  Rows:          %d\n", stats.Rows)
	fmt.Printf("  Columns:       %d\n", stats.Columns)
	fmt.Printf("  int64 range:   [%d, %d]\n", stats.IntMin, stats.IntMax)
	fmt.Printf("  float64 mean:  %.4f\n", stats.FloatMean)
	fmt.Printf("  bool true:     %.4f\n", stats.TrueRate)
	fmt.Printf("  Unknown words: %d\n", stats.UnknownWords)
}

func printResults(report VerifyReport) {
	fmt.Println("=== Results ===")
	if report.Files != nil {
		printTableStats("Parquet", report.Files.Parquet)
		printTableStats("CSV", report.Files.CSV)
		fmt.Printf("Cross-format consistent: %v\n", report.Files.Consistent)
	}
	printTableStats("Published", report.Published)
	for _, e := range report.Errors {
		fmt.Printf("FAIL: %s\n", e)
	}
	if report.Passed {
		fmt.Println("PASS")
	}
}

func saveReport(path string, report VerifyReport) {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("Failed to marshal report: %v", err)
		return
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		log.Printf("Failed to write report: %v", err)
		return
	}

	fmt.Printf("\nReport saved to: %s\n", path)
}
