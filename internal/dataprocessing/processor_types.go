package dataprocessing

import (
	"b3data/internal/config"
	"b3data/internal/infrastructure"
)

// Options configures the loader, stacker and engine.
type Options struct {
	// RegionCodes are searched for in var_name when a time series has no
	// region column. Matches are joined in this order.
	RegionCodes     []string
	RegionSeparator string

	// Sheet selects the worksheet of .xlsx inputs; empty means the first.
	Sheet string

	// Metrics receives row, notice and operation counts. May be nil.
	Metrics *infrastructure.DataMetrics
}

// DefaultOptions returns the options matching config.Default.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Processing, nil)
}

// OptionsFromConfig builds Options from the processing section.
func OptionsFromConfig(cfg config.ProcessingConfig, metrics *infrastructure.DataMetrics) Options {
	return Options{
		RegionCodes:     append([]string(nil), cfg.RegionCodes...),
		RegionSeparator: cfg.RegionSeparator,
		Sheet:           cfg.Sheet,
		Metrics:         metrics,
	}
}

func (o Options) withDefaults() Options {
	def := config.Default().Processing
	if len(o.RegionCodes) == 0 {
		o.RegionCodes = def.RegionCodes
	}
	if o.RegionSeparator == "" {
		o.RegionSeparator = def.RegionSeparator
	}
	return o
}
