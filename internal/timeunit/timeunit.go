// Package timeunit parses the CLI's time-unit argument into the
// time.Duration it scales every other duration-shaped argument by: the
// order source's batch interval, the dispatcher's driver duration bounds,
// and the granularity an order's shelf life and decay rate are measured
// in. It is the Go equivalent of java.util.concurrent.TimeUnit.valueOf,
// restricted to the two resolutions the original simulator's own default
// arguments exercise.
package timeunit

import (
	"fmt"
	"strings"
	"time"
)

// Parse resolves a time-unit name, case-insensitively, to the duration one
// unit represents.
func Parse(name string) (time.Duration, error) {
	switch strings.ToUpper(name) {
	case "SECONDS":
		return time.Second, nil
	case "MILLISECONDS":
		return time.Millisecond, nil
	default:
		return 0, fmt.Errorf("timeunit: unknown unit %q (supported: SECONDS, MILLISECONDS)", name)
	}
}
