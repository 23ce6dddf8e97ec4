// Package dispatch assigns delivery drivers to orders as soon as they are
// placed with the kitchen.
package dispatch

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/tquinto/foodkitchen/internal/order"
)

// Driver represents a delivery driver en route to pick up a single order.
type Driver struct {
	Order         *order.Order
	DriveDuration time.Duration
}

// LogLevel filters the dispatcher's diagnostic messages.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Dispatcher hands out drivers with a drive duration drawn uniformly from
// [Min, Max], inclusive, matching the range the CLI configures.
type Dispatcher struct {
	Min, Max time.Duration

	rng      *rand.Rand
	logger   *log.Logger
	logLevel LogLevel
}

// New constructs a dispatcher bounded by min and max drive durations.
func New(min, max time.Duration) *Dispatcher {
	return &Dispatcher{
		Min:      min,
		Max:      max,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   log.New(os.Stderr, "", 0),
		logLevel: LogLevelInfo,
	}
}

// SetLogLevel changes the minimum level of diagnostic message the
// dispatcher reports about its own operation.
func (d *Dispatcher) SetLogLevel(level LogLevel) {
	d.logLevel = level
}

// DispatchDriver returns a driver assigned to pick up the given order, with
// a drive duration chosen uniformly at random within [Min, Max].
func (d *Dispatcher) DispatchDriver(o *order.Order) Driver {
	span := int64(d.Max - d.Min)
	var offset time.Duration
	if span > 0 {
		offset = time.Duration(d.rng.Int63n(span + 1))
	}
	driver := Driver{Order: o, DriveDuration: d.Min + offset}
	d.log(LogLevelDebug, "dispatched driver for order %d, arriving in %s", o.ID, driver.DriveDuration)
	return driver
}

func (d *Dispatcher) log(level LogLevel, format string, args ...any) {
	if level < d.logLevel {
		return
	}
	levelStr := "INFO"
	switch level {
	case LogLevelDebug:
		levelStr = "DEBUG"
	case LogLevelWarn:
		levelStr = "WARN"
	case LogLevelError:
		levelStr = "ERROR"
	}
	msg := fmt.Sprintf(format, args...)
	d.logger.Printf("%s %s dispatcher: %s", time.Now().Format(time.RFC3339), levelStr, msg)
}
