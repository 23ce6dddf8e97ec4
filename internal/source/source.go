// Package source reads food orders from a JSON file and emits them as a
// cold stream, grouped into batches sent at a fixed interval. Batch sizes
// are drawn from a Poisson distribution around a configured average so the
// stream mimics a kitchen receiving orders at an uneven real-world rate
// rather than one order per tick.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/tquinto/foodkitchen/internal/clock"
	"github.com/tquinto/foodkitchen/internal/kerrors"
	"github.com/tquinto/foodkitchen/internal/order"
)

// record is the on-disk shape of a single order in the JSON input file.
type record struct {
	Name      string  `json:"name"`
	Temp      string  `json:"temp"`
	ShelfLife int     `json:"shelfLife"`
	DecayRate float64 `json:"decayRate"`
}

// FileSource reads orders from a JSON array file and emits them in batches
// at a fixed interval, with each batch's size drawn from a Poisson
// distribution around AverageOrdersPerInterval. Interval doubles as the
// simulation's configured time unit: it is both the spacing between
// batches and the duration of one unit of shelf life for every order the
// source emits, matching the CLI's single time-unit argument governing
// both.
type FileSource struct {
	Path                     string
	Interval                 time.Duration
	AverageOrdersPerInterval float64

	clk clock.Clock
	rng *rand.Rand
}

// New constructs a file source reading orders from path, emitting batches
// every interval averaging averagePerInterval orders each.
func New(path string, interval time.Duration, averagePerInterval float64) *FileSource {
	return NewWithClock(path, interval, averagePerInterval, clock.Real{})
}

// NewWithClock is New with an injectable clock, used by tests to drive the
// batch interval deterministically.
func NewWithClock(path string, interval time.Duration, averagePerInterval float64, clk clock.Clock) *FileSource {
	return &FileSource{
		Path:                     path,
		Interval:                 interval,
		AverageOrdersPerInterval: averagePerInterval,
		clk:                      clk,
		rng:                      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Orders implements kitchen.Source. It reads the entire file up front, then
// emits its orders in Poisson-sized batches spaced Interval apart. The
// orders channel closes once every record has been emitted or a fatal error
// occurs; at most one error is ever sent on the errors channel.
func (s *FileSource) Orders(ctx context.Context) (<-chan *order.Order, <-chan error) {
	out := make(chan *order.Order)
	errs := make(chan error, 1)
	go s.run(ctx, out, errs)
	return out, errs
}

func (s *FileSource) run(ctx context.Context, out chan<- *order.Order, errs chan<- error) {
	defer close(out)
	defer close(errs)

	records, err := s.readRecords()
	if err != nil {
		errs <- err
		return
	}

	i := 0
	for i < len(records) {
		n := poissonSample(s.rng, s.AverageOrdersPerInterval)
		end := i + n
		if end > len(records) {
			end = len(records)
		}
		for _, rec := range records[i:end] {
			o := order.NewWithUnit(rec.Name, rec.Temp, rec.ShelfLife, rec.DecayRate, s.Interval)
			select {
			case out <- o:
			case <-ctx.Done():
				return
			}
		}
		i = end
		if i >= len(records) {
			return
		}
		if !s.wait(ctx) {
			return
		}
	}
}

// wait blocks until Interval has passed or ctx is cancelled, reporting
// whether it returned because of the interval elapsing (true) rather than
// cancellation (false).
func (s *FileSource) wait(ctx context.Context) bool {
	done := make(chan struct{})
	timer := s.clk.AfterFunc(s.Interval, func() { close(done) })
	select {
	case <-done:
		return true
	case <-ctx.Done():
		timer.Stop()
		return false
	}
}

func (s *FileSource) readRecords() ([]record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrParse, err)
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrParse, err)
	}
	return records, nil
}
