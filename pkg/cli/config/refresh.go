package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Refresh holds scheduling settings for the background reconciliation
type Refresh struct {
	intervalSec int
}

func (x *Refresh) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "refresh-interval",
			Usage:       "Seconds between the starts of two refresh cycles",
			Category:    "Refresh",
			Value:       3600,
			Destination: &x.intervalSec,
			Sources:     cli.EnvVars("CHECKERBOARD_REFRESH_INTERVAL"),
		},
	}
}

// Interval returns the validated refresh interval
func (x *Refresh) Interval() (time.Duration, error) {
	if x.intervalSec <= 0 {
		return 0, goerr.New("refresh interval must be positive", goerr.V("interval", x.intervalSec))
	}
	return time.Duration(x.intervalSec) * time.Second, nil
}
