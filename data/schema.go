package data

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
)

// Column names, in file order.
const (
	ColumnInt64   = "int64"
	ColumnFloat64 = "float64"
	ColumnString  = "string"
	ColumnBool    = "bool"
)

// ColumnNames lists the dataset columns in the order they are written.
var ColumnNames = []string{ColumnInt64, ColumnFloat64, ColumnString, ColumnBool}

// Schema metadata keys.
const (
	MetaGenerator = "generator"
	MetaVersion   = "version"
	MetaRunID     = "run_id"
	MetaSeed      = "seed"
	MetaRows      = "rows"
)

// Generator identity stored in the schema metadata.
const (
	GeneratorName    = "speedtest-dataset"
	GeneratorVersion = "0.1.0"
)

// DatasetSchema returns the Arrow schema of the benchmark dataset.
//
// Fields:
//   - int64: int64 - uniform integers in [0, 100)
//   - float64: float64 - standard normal shifted by +100
//   - string: string - words sampled from the word list
//   - bool: bool - true with probability ~0.1
func DatasetSchema() *arrow.Schema {
	return arrow.NewSchema(datasetFields(), nil)
}

// DatasetSchemaWithMetadata returns DatasetSchema annotated with the run identity.
func DatasetSchemaWithMetadata(runID string, seed uint64, rows int) *arrow.Schema {
	metadata := arrow.NewMetadata(
		[]string{MetaGenerator, MetaVersion, MetaRunID, MetaSeed, MetaRows},
		[]string{
			GeneratorName,
			GeneratorVersion,
			runID,
			strconv.FormatUint(seed, 10),
			strconv.Itoa(rows),
		},
	)
	return arrow.NewSchema(datasetFields(), &metadata)
}

func datasetFields() []arrow.Field {
	return []arrow.Field{
		{Name: ColumnInt64, Type: arrow.PrimitiveTypes.Int64},
		{Name: ColumnFloat64, Type: arrow.PrimitiveTypes.Float64},
		{Name: ColumnString, Type: arrow.BinaryTypes.String},
		{Name: ColumnBool, Type: arrow.FixedWidthTypes.Boolean},
	}
}
