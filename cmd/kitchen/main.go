// Command kitchen runs the food order kitchen simulator: it reads orders
// from a JSON file, feeds them through the kitchen coordinator, and writes
// a text log of everything that happens to them.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tquinto/foodkitchen/internal/config"
	"github.com/tquinto/foodkitchen/internal/dispatch"
	"github.com/tquinto/foodkitchen/internal/display"
	"github.com/tquinto/foodkitchen/internal/events"
	"github.com/tquinto/foodkitchen/internal/kitchen"
	"github.com/tquinto/foodkitchen/internal/policy"
	"github.com/tquinto/foodkitchen/internal/shelf"
	"github.com/tquinto/foodkitchen/internal/source"
)

func main() {
	cfg, err := resolveConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(run(cfg))
}

// resolveConfig mirrors the original command line's argument handling:
// -config FILE.yaml loads a YAML override, no arguments at all selects
// built-in defaults, and anything else must be exactly the fourteen
// positional arguments or it's rejected with the full argument list
// printed to help the caller.
func resolveConfig(args []string) (config.Config, error) {
	if len(args) == 2 && args[0] == "-config" {
		return config.LoadFile(args[1])
	}
	if len(args) == 0 {
		return config.Defaults(), nil
	}
	cfg, err := config.ParseArgs(args)
	if err != nil {
		printUsage()
		return config.Config{}, err
	}
	return cfg, nil
}

func printUsage() {
	fmt.Println("Wrong number of arguments.")
	fmt.Println()
	fmt.Println("Argument list:")
	defaults := config.Defaults()
	defaultValues := []string{
		defaults.Source.FilePath,
		defaults.Source.TimeUnit,
		fmt.Sprintf("%g", defaults.Source.AverageOrdersPerInterval),
		strconv.Itoa(defaults.Dispatch.MinDriveDuration),
		strconv.Itoa(defaults.Dispatch.MaxDriveDuration),
		strconv.Itoa(defaults.Shelves.Hot.Capacity),
		fmt.Sprintf("%g", defaults.Shelves.Hot.DecayRateMultiplier),
		strconv.Itoa(defaults.Shelves.Cold.Capacity),
		fmt.Sprintf("%g", defaults.Shelves.Cold.DecayRateMultiplier),
		strconv.Itoa(defaults.Shelves.Frozen.Capacity),
		fmt.Sprintf("%g", defaults.Shelves.Frozen.DecayRateMultiplier),
		strconv.Itoa(defaults.Shelves.Overflow.Capacity),
		fmt.Sprintf("%g", defaults.Shelves.Overflow.DecayRateMultiplier),
		strconv.FormatBool(defaults.Display.Verbose),
	}
	for i, descriptor := range config.ArgumentDescriptors {
		fmt.Printf("%d) %s, default: %s\n", i+1, descriptor, defaultValues[i])
	}
	fmt.Println()
	fmt.Println("Alternatively, pass -config FILE.yaml to load a YAML configuration file.")
	fmt.Println("To run using defaults, omit all arguments.")
}

func run(cfg config.Config) int {
	unit, err := cfg.Source.UnitDuration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	hotShelf := shelf.New("hot", cfg.Shelves.Hot.Capacity, cfg.Shelves.Hot.DecayRateMultiplier)
	coldShelf := shelf.New("cold", cfg.Shelves.Cold.Capacity, cfg.Shelves.Cold.DecayRateMultiplier)
	frozenShelf := shelf.New("frozen", cfg.Shelves.Frozen.Capacity, cfg.Shelves.Frozen.DecayRateMultiplier)
	overflowShelf := shelf.New("overflow", cfg.Shelves.Overflow.Capacity, cfg.Shelves.Overflow.DecayRateMultiplier)
	overflowShelf.SetAcceptedTypes("hot", "cold", "frozen")

	dispatcher := dispatch.New(
		time.Duration(cfg.Dispatch.MinDriveDuration)*unit,
		time.Duration(cfg.Dispatch.MaxDriveDuration)*unit,
	)
	k := kitchen.New(policy.New(), dispatcher, []*shelf.Shelf{hotShelf, coldShelf, frozenShelf}, overflowShelf)

	src := source.New(cfg.Source.FilePath, unit, cfg.Source.AverageOrdersPerInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventsCh, errs := k.ProcessOrders(ctx, src)

	d := display.New(cfg.Display.OutputFile, cfg.Display.Verbose)
	d.SummaryPath = cfg.Display.SummaryFile

	recorder, unsubscribe, err := newRecorder(cfg.Audit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	defer unsubscribe()

	primary, secondary := events.Tee(eventsCh)

	recordErr := make(chan error, 1)
	go func() { recordErr <- recorder.RecordAll(secondary) }()

	displayErr := d.Run(primary, errs)
	if err := <-recordErr; err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if displayErr != nil {
		fmt.Fprintln(os.Stderr, displayErr)
		return 1
	}
	return 0
}

// newRecorder builds the recorder every run uses to shadow the primary
// event stream: it always publishes on an in-process bus, which
// SubscribeWasteAlerts uses to log wasted orders to stderr as they happen,
// and additionally appends to a durable audit log if cfg names one. The
// returned unsubscribe func must be called once the run is done with the
// bus; it is always safe to call even if opening the audit log failed.
func newRecorder(cfg config.AuditConfig) (*events.Recorder, func(), error) {
	bus := events.NewBus(64)
	unsubscribe := events.SubscribeWasteAlerts(bus, log.New(os.Stderr, "", 0))

	if cfg.LogPath == "" {
		return events.NewRecorder(bus, nil), unsubscribe, nil
	}

	audit, err := events.NewAuditLogger(cfg.LogPath, events.DefaultMaxLogSize)
	if err != nil {
		return events.NewRecorder(bus, nil), unsubscribe, fmt.Errorf("audit log: %w", err)
	}
	audit.EnableChecksum(cfg.EnableChecksum)
	return events.NewRecorder(bus, audit), unsubscribe, nil
}
