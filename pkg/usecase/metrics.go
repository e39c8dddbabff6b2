package usecase

import "github.com/VictoriaMetrics/metrics"

var (
	refreshCycles        = metrics.NewCounter("checkerboard_refresh_cycles_total")
	refreshFailures      = metrics.NewCounter("checkerboard_refresh_failures_total")
	refreshChangedCycles = metrics.NewCounter("checkerboard_refresh_changed_total")
	refreshLookups       = metrics.NewCounter("checkerboard_refresh_lookups_total")
	refreshPurged        = metrics.NewCounter("checkerboard_refresh_purged_total")
	refreshDuration      = metrics.NewHistogram("checkerboard_refresh_duration_seconds")
	mirrorRebuilds       = metrics.NewCounter("checkerboard_mirror_rebuilds_total")
)
