package domain

import (
	"database/sql"
	"time"
)

// StackedSeries holds one variable's whole value sequence together with the
// time range and frequency it was sampled at.
type StackedSeries struct {
	ID         sql.NullInt64  `json:"id_ts"`
	Region     string         `json:"region"`
	VarName    string         `json:"var_name" validate:"required"`
	Start      time.Time      `json:"timeindex_start"` // zero when missing
	Stop       time.Time      `json:"timeindex_stop"`  // zero when missing
	Resolution string         `json:"timeindex_resolution"`
	Series     []float64      `json:"series"` // NaN marks a missing step
	VarUnit    sql.NullString `json:"var_unit"`
	Source     sql.NullString `json:"source"`
	Comment    sql.NullString `json:"comment"`
}

// Clone returns a copy of s that shares no memory with it.
func (s StackedSeries) Clone() StackedSeries {
	out := s
	if s.Series != nil {
		out.Series = make([]float64, len(s.Series))
		copy(out.Series, s.Series)
	}
	return out
}
