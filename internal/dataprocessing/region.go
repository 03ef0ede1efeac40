package dataprocessing

import (
	"strings"

	apperrors "b3data/internal/errors"
)

// RegionInferrer derives a region from the codes embedded in a var_name.
type RegionInferrer struct {
	Codes     []string
	Separator string
}

// Infer returns every code contained in varName, in Codes order, joined by
// Separator: "BE-BB-demand" gives "BE_BB" with the default codes. A var_name
// without any code fails with MissingRegion.
func (r RegionInferrer) Infer(varName string) (string, error) {
	var found []string
	for _, code := range r.Codes {
		if code != "" && strings.Contains(varName, code) {
			found = append(found, code)
		}
	}
	if len(found) == 0 {
		return "", apperrors.NewMissingRegionError(varName, r.Codes)
	}
	return strings.Join(found, r.Separator), nil
}
