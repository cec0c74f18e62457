package store

import "context"

// Table names used by the reconciliation core.
const (
	TableKPIRecords         = "kpi_records"
	TableRejectedKPIRecords = "rejected_kpi_records"
	TableBOQActivities      = "boq_activities"
)

// Row is one schema-permissive record. The live and rejected KPI tables hold
// columns from two naming eras (snake_case and legacy "Title Case With
// Spaces"), so rows travel as maps and every semantic read goes through the
// normalizer instead of indexing keys directly.
type Row = map[string]any

// Cond matches a column against one value (equality) or several (membership).
type Cond struct {
	Column string
	Values []any
}

// Eq builds an equality condition.
func Eq(column string, value any) Cond {
	return Cond{Column: column, Values: []any{value}}
}

// In builds a membership condition.
func In(column string, values ...any) Cond {
	return Cond{Column: column, Values: values}
}

// Query is the generic query capability the core consumes: equality and
// membership filters, one OR-group, and range pagination. No SQL dialect
// leaks past this type.
type Query struct {
	Match  []Cond // ANDed together
	Any    []Cond // ORed together, then ANDed with Match
	Offset int
	Limit  int // 0 means no limit
}

// Table is the abstract store the reconciliation core is written against.
// Implementations must treat each call as atomic; there are no cross-call
// transactions, the core compensates for that itself.
type Table interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Get(ctx context.Context, id string) (Row, error)
	// Insert stores the row and returns it with the store-assigned id.
	Insert(ctx context.Context, row Row) (Row, error)
	Update(ctx context.Context, id string, values Row) error
	Delete(ctx context.Context, id string) error
}
