// Package dataprocessing loads, reshapes, filters and aggregates the two
// record types of the energy system data pipeline: scalars and time series.
//
// # Components
//
//   - Loader reads CSV or XLSX files and repairs them into their canonical
//     schema: missing ids are numbered, missing optional columns are added,
//     and time series regions are derived from var_name when absent.
//   - Stacker converts wide time series (one column per variable, indexed
//     by timestamp) to the stacked form (one row per variable holding the
//     whole series) and back.
//   - Engine filters rows by a key column and aggregates them by region,
//     carrier or tech.
//
// Processor bundles all three for callers that need the whole pipeline:
//
//	p := dataprocessing.New(logger, dataprocessing.DefaultOptions())
//	table, err := p.LoadTimeseries(ctx, "profiles.csv")
//	if err != nil {
//	    return err
//	}
//	bb, err := p.FilterSeries(ctx, table, "region", []string{"BB"})
//
// # Notices
//
// Repairs that change the data emit user notices: slog records at INFO
// ("User info: ...") or WARN ("User warning: ...") carrying notice=true and
// the operation name. They never interrupt processing.
//
// # Errors
//
// Every failure is an *errors.AppError whose Type names the condition, for
// example MISSING_REQUIRED_COLUMNS or NO_FIXED_FREQUENCY. Match them with
// errors.Is against the sentinels of internal/errors.
package dataprocessing
