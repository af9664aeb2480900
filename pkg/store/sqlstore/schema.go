package sqlstore

import (
	"math"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	invocationsTable = "tool_invocations"

	columnRequestID = "request_id"
	columnTool      = "tool"
	columnArguments = "arguments"
	columnIsError   = "is_error"
	columnResult    = "result_text"
	columnDuration  = "duration_ms"
	columnCreated   = "created_unix_ns"
)

var (
	// invocationColumns holds the columns of the journal table.
	invocationColumns = []*schema.Column{
		{Name: columnRequestID, Type: field.TypeString, Unique: true},
		{Name: columnTool, Type: field.TypeString},
		{Name: columnArguments, Type: field.TypeString, Size: math.MaxInt32},
		{Name: columnIsError, Type: field.TypeBool},
		{Name: columnResult, Type: field.TypeString, Size: math.MaxInt32},
		{Name: columnDuration, Type: field.TypeInt64},
		{Name: columnCreated, Type: field.TypeInt64},
	}
	// invocationTable holds the schema information for the journal table.
	invocationTable = &schema.Table{
		Name:       invocationsTable,
		Columns:    invocationColumns,
		PrimaryKey: []*schema.Column{invocationColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "tool_invocations_created_idx",
				Unique:  false,
				Columns: []*schema.Column{invocationColumns[6]},
			},
		},
	}
	tables = []*schema.Table{invocationTable}
)
