// Package display renders the kitchen's event stream as text: one block
// per event showing the order, the full state of every shelf, and a
// running tally of orders received, picked up, decayed, and removed.
package display

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tquinto/foodkitchen/internal/atomicfile"
	"github.com/tquinto/foodkitchen/internal/kitchen"
	"github.com/tquinto/foodkitchen/internal/order"
	"github.com/tquinto/foodkitchen/internal/shelf"
)

// LogLevel filters the display's own diagnostic messages (distinct from
// the order events it renders, which are always written regardless of
// level).
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Display consumes a kitchen's event stream and renders it as text to a
// log file and, optionally, standard output. It tracks how many distinct
// orders it has seen and how each one was ultimately disposed of.
type Display struct {
	OutputPath  string
	SummaryPath string
	Verbose     bool

	logger   *log.Logger
	logLevel LogLevel

	seenOrders  map[int64]struct{}
	pickupCount int
	decayCount  int
	removeCount int
}

// Summary is the end-of-run tally written to SummaryPath, if configured. It
// is meant as a durable, machine-readable complement to the text log: a
// dead-letter-style record of how many orders were ultimately wasted versus
// delivered.
type Summary struct {
	OrdersReceived int `yaml:"orders_received"`
	PickedUp       int `yaml:"picked_up"`
	Decayed        int `yaml:"decayed"`
	Removed        int `yaml:"removed"`
}

// New constructs a display writing to outputPath (truncated at the start
// of each run, matching the Java original's one-log-file-per-run
// behavior). Pass verbose=true to also echo every event to stdout.
func New(outputPath string, verbose bool) *Display {
	return &Display{
		OutputPath: outputPath,
		Verbose:    verbose,
		logger:     log.New(os.Stderr, "", 0),
		logLevel:   LogLevelInfo,
		seenOrders: make(map[int64]struct{}),
	}
}

// SetLogLevel changes the minimum level of diagnostic message the display
// reports about itself (as opposed to the order events it renders, which
// are unconditional).
func (d *Display) SetLogLevel(level LogLevel) {
	d.logLevel = level
}

// Run consumes events and errs until both close, writing every event to
// the output file (and, if Verbose, to stdout), and returns the first
// error reported on errs, if any.
func (d *Display) Run(events <-chan kitchen.Event, errs <-chan error) error {
	w, closeFn, err := d.openOutput()
	if err != nil {
		d.log(LogLevelError, "failed to open output file %s: %v", d.OutputPath, err)
		return fmt.Errorf("display: open output: %w", err)
	}
	defer closeFn()

	var finalErr error
	for {
		select {
		case e, ok := <-events:
			if !ok {
				events = nil
				break
			}
			d.record(e)
			line := d.format(e)
			fmt.Fprintln(w, line)
			if d.Verbose {
				fmt.Println(line)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				break
			}
			if finalErr == nil {
				finalErr = err
			}
		}
		if events == nil && errs == nil {
			break
		}
	}
	if d.SummaryPath != "" {
		if err := d.writeSummary(); err != nil {
			d.log(LogLevelError, "failed to write summary file %s: %v", d.SummaryPath, err)
			if finalErr == nil {
				finalErr = fmt.Errorf("display: write summary: %w", err)
			}
		}
	}
	return finalErr
}

func (d *Display) writeSummary() error {
	summary := Summary{
		OrdersReceived: len(d.seenOrders),
		PickedUp:       d.pickupCount,
		Decayed:        d.decayCount,
		Removed:        d.removeCount,
	}
	return atomicfile.WriteYAML(d.SummaryPath, summary)
}

func (d *Display) openOutput() (io.Writer, func(), error) {
	if d.OutputPath == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.Create(d.OutputPath)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func (d *Display) record(e kitchen.Event) {
	d.seenOrders[e.Order.ID] = struct{}{}
	switch e.Type {
	case kitchen.PickedUp:
		d.pickupCount++
	case kitchen.DecayedWaste:
		d.decayCount++
	case kitchen.RemovedWaste:
		d.removeCount++
	}
}

// format renders one event: the event type and shelf, the order, the event
// time, every shelf's contents, and the running tally. Verbose mode includes every decay-related field of the
// order; non-verbose mode shows only its normalized freshness.
func (d *Display) format(e kitchen.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n%s%s\n", e.Type, formatShelfSuffix(e.ShelfType))
	fmt.Fprintln(&b, formatOrder(e.Order, e.Time, d.Verbose))
	fmt.Fprintln(&b, e.Time.Format(time.RFC3339))
	for _, s := range e.Shelves {
		fmt.Fprintln(&b, formatShelf(s, e.Time, d.Verbose))
	}
	b.WriteString(d.formatCounts())
	return b.String()
}

func formatShelfSuffix(shelfType string) string {
	if shelfType == "" {
		return ""
	}
	return fmt.Sprintf(" - %s shelf", shelfType)
}

func formatOrder(o *order.Order, now time.Time, verbose bool) string {
	normalized, err := o.NormalizedFreshness(now)
	if err != nil {
		normalized = 0
	}
	if !verbose {
		return fmt.Sprintf("Order{id=%d, name=%q, temp=%q, shelfLife=%d, decayRate=%.2f, normalizedFreshness=%.4f}",
			o.ID, o.Name, o.Temp, o.ShelfLife, o.DecayRate, normalized)
	}

	freshness, _ := o.Freshness(now)
	lifetime, _ := o.LifetimeRemaining(now)
	addedToShelf, _ := o.AddedToShelfDate()
	currentDecayRate, _ := o.CurrentDecayRate()
	adjustedShelfLife, _ := o.AdjustedShelfLife()

	return fmt.Sprintf("Order{id=%d, name=%q, temp=%q, shelfLife=%d, decayRate=%.2f, normalizedFreshness=%.4f, "+
		"freshness=%.2f, lifetimeRemaining=%.2f, birthDate=%s, addedToShelfDate=%s, currentDecayRate=%.2f, adjustedShelfLife=%.4f}",
		o.ID, o.Name, o.Temp, o.ShelfLife, o.DecayRate, normalized, freshness, lifetime,
		o.BirthDate().Format(time.RFC3339), addedToShelf.Format(time.RFC3339), currentDecayRate, adjustedShelfLife)
}

func formatShelf(s *shelf.Shelf, now time.Time, verbose bool) string {
	orders := s.Orders()
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })

	var b strings.Builder
	fmt.Fprintf(&b, "%s shelf size: %d", s.Type, len(orders))
	for _, o := range orders {
		b.WriteString("\n")
		b.WriteString(formatOrder(o, now, verbose))
	}
	return b.String()
}

func (d *Display) formatCounts() string {
	return fmt.Sprintf("orders received: %d, picked up: %d, decayed: %d, removed: %d",
		len(d.seenOrders), d.pickupCount, d.decayCount, d.removeCount)
}

func (d *Display) log(level LogLevel, format string, args ...any) {
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
	d.logger.Printf("%s %s display: %s", time.Now().Format(time.RFC3339), levelStr, msg)
}
