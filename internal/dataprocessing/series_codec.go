package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders v in its shortest round-trip decimal form. NaN becomes
// the empty string so that a missing value is an empty CSV cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return formatNumber(v)
}

func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EncodeSeries writes a series cell as "[v1, v2, nan]".
func EncodeSeries(values []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatNumber(v))
	}
	b.WriteByte(']')
	return b.String()
}

// DecodeSeries parses a series cell written by EncodeSeries. It also accepts
// the literal forms other tools produce: parentheses instead of brackets,
// "NaN", "None" and "null" for missing steps, integers and exponents.
func DecodeSeries(cell string) ([]float64, error) {
	s := strings.TrimSpace(cell)
	if len(s) < 2 {
		return nil, fmt.Errorf("series %q is not a bracketed list", cell)
	}
	open, closing := s[0], s[len(s)-1]
	if !(open == '[' && closing == ']') && !(open == '(' && closing == ')') {
		return nil, fmt.Errorf("series %q is not a bracketed list", cell)
	}

	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float64{}, nil
	}

	parts := strings.Split(body, ",")
	// a one-element tuple is written "(1.0,)"
	if strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := parseSeriesValue(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("series element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseSeriesValue(tok string) (float64, error) {
	switch strings.ToLower(tok) {
	case "nan", "none", "null", "":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", tok)
	}
	return v, nil
}

// parseCellFloat parses a var_value style cell; empty cells are missing.
func parseCellFloat(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN(), nil
	}
	return parseSeriesValue(s)
}

// parseCellID parses an id cell. Spreadsheet tools write integer ids as
// "3.0", which is accepted.
func parseCellID(cell string) (int64, bool, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false, nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false, fmt.Errorf("invalid id %q", cell)
	}
	return int64(f), true, nil
}
