package models

import (
	"fmt"
	"strings"
)

// ColumnDef defines a single column for a derived table. The column lists in
// pkg/db/derived are the single source of truth for the target schemas.
type ColumnDef struct {
	// Name is the column name.
	Name string

	// Type is the ClickHouse data type (e.g. "UInt32", "String", "Bool").
	Type string

	// Default is an optional DEFAULT expression.
	Default string

	// Codec is the optional compression codec (e.g. "ZSTD(1)").
	Codec string

	// Comment documents the column in the table DDL.
	Comment string
}

// SQL returns the full column definition for CREATE TABLE statements.
// Example: "address String COMMENT 'The address of the account' CODEC(ZSTD(1))"
func (c ColumnDef) SQL() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(" ")
	b.WriteString(c.Type)
	if c.Default != "" {
		fmt.Fprintf(&b, " DEFAULT %s", c.Default)
	}
	if c.Comment != "" {
		fmt.Fprintf(&b, " COMMENT '%s'", c.Comment)
	}
	if c.Codec != "" {
		fmt.Fprintf(&b, " CODEC(%s)", c.Codec)
	}
	return b.String()
}

// Validate checks that the definition is usable in DDL.
func (c ColumnDef) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("column name cannot be empty")
	}
	if c.Type == "" {
		return fmt.Errorf("column %s: type cannot be empty", c.Name)
	}
	return nil
}

// ColumnsToSchemaSQL renders a comma-joined column block for CREATE TABLE.
func ColumnsToSchemaSQL(cols []ColumnDef) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, c.SQL())
	}
	return strings.Join(parts, ",\n\t")
}
