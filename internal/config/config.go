// Package config defines the kitchen simulator's configuration: one
// sub-struct per concern, parseable from either the fourteen positional
// CLI arguments the original command line took or a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tquinto/foodkitchen/internal/timeunit"
)

// Config is the full simulator configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Shelves  ShelvesConfig  `yaml:"shelves"`
	Display  DisplayConfig  `yaml:"display"`
	Audit    AuditConfig    `yaml:"audit"`
}

// AuditConfig configures the optional secondary audit trail. It has no
// positional CLI argument; it can only be set via -config FILE.yaml, since
// it is supplemental to the fourteen-argument command line the original
// simulator took.
type AuditConfig struct {
	LogPath        string `yaml:"log_path"`
	EnableChecksum bool   `yaml:"enable_checksum"`
}

// SourceConfig configures where orders come from and how fast they arrive.
// TimeUnit governs more than the source: it is the single resolution the
// whole simulation runs at, scaling the batch interval below, the
// dispatcher's driver duration bounds, and every order's shelf life.
type SourceConfig struct {
	FilePath                 string  `yaml:"file_path"`
	TimeUnit                 string  `yaml:"time_unit"`
	AverageOrdersPerInterval float64 `yaml:"average_orders_per_interval"`
}

// UnitDuration resolves TimeUnit to the duration one unit represents.
func (c SourceConfig) UnitDuration() (time.Duration, error) {
	return timeunit.Parse(c.TimeUnit)
}

// DispatchConfig bounds how long a driver takes to arrive after an order
// is placed, counted in whole multiples of SourceConfig.TimeUnit rather
// than a fixed wall-clock unit.
type DispatchConfig struct {
	MinDriveDuration int `yaml:"min_drive_duration"`
	MaxDriveDuration int `yaml:"max_drive_duration"`
}

// ShelfConfig configures one shelf's capacity and how much faster orders
// decay while sitting on it.
type ShelfConfig struct {
	Capacity            int     `yaml:"capacity"`
	DecayRateMultiplier float64 `yaml:"decay_rate_multiplier"`
}

// ShelvesConfig configures the kitchen's four shelves.
type ShelvesConfig struct {
	Hot      ShelfConfig `yaml:"hot"`
	Cold     ShelfConfig `yaml:"cold"`
	Frozen   ShelfConfig `yaml:"frozen"`
	Overflow ShelfConfig `yaml:"overflow"`
}

// DisplayConfig configures how simulation output is rendered.
type DisplayConfig struct {
	OutputFile  string `yaml:"output_file"`
	SummaryFile string `yaml:"summary_file"`
	Verbose     bool   `yaml:"verbose"`
}

// DefaultOutputFile matches the original command line's default log file
// name.
const DefaultOutputFile = "food-order-sim.log"

// Defaults returns the configuration the original command line used when
// invoked with no arguments at all.
func Defaults() Config {
	return Config{
		Source: SourceConfig{
			FilePath:                 "orders.json",
			TimeUnit:                 "SECONDS",
			AverageOrdersPerInterval: 3.25,
		},
		Dispatch: DispatchConfig{
			MinDriveDuration: 2,
			MaxDriveDuration: 8,
		},
		Shelves: ShelvesConfig{
			Hot:      ShelfConfig{Capacity: 15, DecayRateMultiplier: 1},
			Cold:     ShelfConfig{Capacity: 15, DecayRateMultiplier: 1},
			Frozen:   ShelfConfig{Capacity: 15, DecayRateMultiplier: 1},
			Overflow: ShelfConfig{Capacity: 20, DecayRateMultiplier: 2},
		},
		Display: DisplayConfig{
			OutputFile: DefaultOutputFile,
			Verbose:    false,
		},
	}
}

// ArgumentDescriptors documents each of the fourteen positional CLI
// arguments ParseArgs expects, in order, matching the original command
// line's argument list.
var ArgumentDescriptors = []string{
	"file path of food order JSON file (string)",
	"time-unit name, SECONDS or MILLISECONDS (string)",
	"average number of orders per time unit (float)",
	"minimum driver duration in time units (integer)",
	"maximum driver duration in time units (integer)",
	"hot shelf order capacity (integer)",
	"hot shelf decay rate multiplier (float)",
	"cold shelf order capacity (integer)",
	"cold shelf decay rate multiplier (float)",
	"frozen shelf order capacity (integer)",
	"frozen shelf decay rate multiplier (float)",
	"overflow shelf order capacity (integer)",
	"overflow shelf decay rate multiplier (float)",
	"verbose mode for output (boolean)",
}

// ParseArgs parses the fourteen positional CLI arguments into a Config.
// It returns an error if args does not have exactly len(ArgumentDescriptors)
// elements, or if any numeric/boolean argument fails to parse.
func ParseArgs(args []string) (Config, error) {
	if len(args) != len(ArgumentDescriptors) {
		return Config{}, fmt.Errorf("config: expected %d arguments, got %d", len(ArgumentDescriptors), len(args))
	}

	var cfg Config
	i := 0

	cfg.Source.FilePath = args[i]
	i++

	timeUnit := args[i]
	if _, err := timeunit.Parse(timeUnit); err != nil {
		return Config{}, fmt.Errorf("config: time unit: %w", err)
	}
	cfg.Source.TimeUnit = timeUnit
	i++

	avg, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return Config{}, fmt.Errorf("config: average orders per time unit: %w", err)
	}
	cfg.Source.AverageOrdersPerInterval = avg
	i++

	minDrive, err := strconv.Atoi(args[i])
	if err != nil {
		return Config{}, fmt.Errorf("config: min drive duration: %w", err)
	}
	cfg.Dispatch.MinDriveDuration = minDrive
	i++

	maxDrive, err := strconv.Atoi(args[i])
	if err != nil {
		return Config{}, fmt.Errorf("config: max drive duration: %w", err)
	}
	cfg.Dispatch.MaxDriveDuration = maxDrive
	i++

	shelves := []*ShelfConfig{&cfg.Shelves.Hot, &cfg.Shelves.Cold, &cfg.Shelves.Frozen, &cfg.Shelves.Overflow}
	for _, s := range shelves {
		capacity, err := strconv.Atoi(args[i])
		if err != nil {
			return Config{}, fmt.Errorf("config: shelf capacity: %w", err)
		}
		s.Capacity = capacity
		i++

		multiplier, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: shelf decay rate multiplier: %w", err)
		}
		s.DecayRateMultiplier = multiplier
		i++
	}

	verbose, err := strconv.ParseBool(args[i])
	if err != nil {
		return Config{}, fmt.Errorf("config: verbose flag: %w", err)
	}
	cfg.Display.Verbose = verbose
	cfg.Display.OutputFile = DefaultOutputFile

	return cfg, nil
}

// LoadFile parses a YAML configuration file, starting from Defaults() so
// the file only needs to override what it cares about.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
