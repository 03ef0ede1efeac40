package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ScalarsCSV is a complete scalar table with two scenarios and both regions.
const ScalarsCSV = `id_scal,scenario,name,var_name,carrier,region,tech,type,var_value,var_unit,reference,comment
0,base,BB-wind,capacity,electricity,BB,wind,volatile,100,MW,,
1,base,BE-wind,capacity,electricity,BE,wind,volatile,20,MW,,
2,base,BB-ch4-gt,flow_in_ch4,ch4,BB,gt,conversion,50,MWh,,
3,base,BB-ch4-gt,flow_out_electricity,ch4,BB,gt,conversion,20,MWh,,
4,base,BB-wind,costs_in,electricity,BB,wind,volatile,7,Eur,,
5,other,BB-wind,capacity,electricity,BB,wind,volatile,150,MW,,
`

// ScalarsRequiredCSV holds only the required scalar columns.
const ScalarsRequiredCSV = `scenario,name,var_name,carrier,region,tech,type,var_value
base,BB-wind,capacity,electricity,BB,wind,volatile,100
base,BE-pv,capacity,solar,BE,pv,volatile,30.5
`

// WideCSV is an hourly wide time series with three variables.
const WideCSV = `timeindex,BB-wind-profile,BE-pv-profile,BE_BB-demand
2019-01-01 00:00:00,0.1,0,1
2019-01-01 01:00:00,0.2,0,2
2019-01-01 02:00:00,0.3,0.5,3
2019-01-01 03:00:00,0.4,0.7,4
`

// StackedCSV is the stacked form of WideCSV without optional columns.
const StackedCSV = `var_name,timeindex_start,timeindex_stop,timeindex_resolution,series
BB-wind-profile,2019-01-01 00:00:00,2019-01-01 03:00:00,H,"[0.1, 0.2, 0.3, 0.4]"
BE-pv-profile,2019-01-01 00:00:00,2019-01-01 03:00:00,H,"[0, 0, 0.5, 0.7]"
BE_BB-demand,2019-01-01 00:00:00,2019-01-01 03:00:00,H,"[1, 2, 3, 4]"
`

// ResultsCSV is an optimisation results export with a three-row header.
const ResultsCSV = `from,BB-wind,BB-bus
to,BB-bus,BB-demand
type,flow,flow
timeindex,,
2019-01-01 00:00:00,1,2
2019-01-01 01:00:00,3,4
2019-01-01 02:00:00,5,6
`

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

// AssertFileContains fails the test unless the file at path contains substr.
func AssertFileContains(t *testing.T, path, substr string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("Expected %s to contain %q, got:\n%s", path, substr, data)
	}
}
