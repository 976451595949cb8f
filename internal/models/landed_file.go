package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TableLandedFile holds one completion marker per fully landed source file.
const TableLandedFile = "etl_landed_file"

// LandedFile marks a source file whose rows are all present in a raw table.
// It is written in the same transaction as the file's last chunk.
type LandedFile struct {
	bun.BaseModel `bun:"table:etl_landed_file,alias:lf"`

	TableName  string    `bun:"table_name,pk" json:"table_name"`
	SourceFile string    `bun:"source_file,pk" json:"source_file"`
	RowCount   int       `bun:"row_count,notnull" json:"row_count"`
	LoadedAt   time.Time `bun:"loaded_at,notnull" json:"loaded_at"`
	LandedAt   time.Time `bun:"landed_at,notnull" json:"landed_at"`
}
