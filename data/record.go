package data

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Common errors for record assembly
var (
	ErrColumnCount  = errors.New("column count mismatch")
	ErrColumnLength = errors.New("column length mismatch")
	ErrColumnType   = errors.New("column type mismatch")
)

// NewRecord assembles columns into a record of exactly rows rows.
// Columns must follow the schema order. The record retains the columns;
// callers still own their references.
func NewRecord(schema *arrow.Schema, columns []arrow.Array, rows int) (arrow.Record, error) {
	if len(columns) != schema.NumFields() {
		return nil, fmt.Errorf("%w: got %d, expected %d",
			ErrColumnCount, len(columns), schema.NumFields())
	}

	for i, col := range columns {
		field := schema.Field(i)
		if col == nil {
			return nil, fmt.Errorf("%w: column %s is missing", ErrColumnCount, field.Name)
		}
		if col.Len() != rows {
			return nil, fmt.Errorf("%w: column %s has %d rows, expected %d",
				ErrColumnLength, field.Name, col.Len(), rows)
		}
		if !arrow.TypeEqual(col.DataType(), field.Type) {
			return nil, fmt.Errorf("%w: column %s is %s, expected %s",
				ErrColumnType, field.Name, col.DataType(), field.Type)
		}
	}

	return array.NewRecord(schema, columns, int64(rows)), nil
}

// ValidateSchema checks that a schema has the expected field names and types, in order.
func ValidateSchema(actual, expected *arrow.Schema) error {
	if actual == nil {
		return errors.New("schema is nil")
	}

	if actual.NumFields() != expected.NumFields() {
		return fmt.Errorf("field count mismatch: got %d, expected %d",
			actual.NumFields(), expected.NumFields())
	}

	for i := 0; i < actual.NumFields(); i++ {
		actualField := actual.Field(i)
		expectedField := expected.Field(i)

		if actualField.Name != expectedField.Name {
			return fmt.Errorf("field %d name mismatch: got %s, expected %s",
				i, actualField.Name, expectedField.Name)
		}

		if !arrow.TypeEqual(actualField.Type, expectedField.Type) {
			return fmt.Errorf("field %s type mismatch: got %s, expected %s",
				actualField.Name, actualField.Type, expectedField.Type)
		}
	}

	return nil
}

// ValidateRecord checks a record against the expected schema.
func ValidateRecord(record arrow.Record, expected *arrow.Schema) error {
	if record == nil {
		return errors.New("record is nil")
	}
	return ValidateSchema(record.Schema(), expected)
}
