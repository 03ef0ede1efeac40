package domain

import (
	"database/sql"
)

// Scalar is a single named value tied to scenario, technology, region and
// type metadata. Optional columns use sql.Null* so that an absent value is
// distinguishable from an empty one.
type Scalar struct {
	ID        sql.NullInt64  `json:"id_scal"`
	Scenario  string         `json:"scenario" validate:"required"`
	Name      string         `json:"name"`
	VarName   string         `json:"var_name" validate:"required"`
	Carrier   string         `json:"carrier"`
	Region    string         `json:"region"`
	Tech      string         `json:"tech"`
	Type      string         `json:"type"`
	VarValue  float64        `json:"var_value"` // NaN when missing
	VarUnit   sql.NullString `json:"var_unit"`
	Reference sql.NullString `json:"reference"`
	Comment   sql.NullString `json:"comment"`
}

// AggregatePlaceholder fills the grouping dimensions an aggregation collapsed.
const AggregatePlaceholder = "All"

// NullID returns a valid sql.NullInt64 holding id.
func NullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: true}
}

// Text returns a valid sql.NullString holding s.
func Text(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
