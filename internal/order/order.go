// Package order models a single food order and the decay state the kitchen
// tracks for it while it sits on a shelf.
package order

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tquinto/foodkitchen/internal/decay"
)

// ErrNotInitialized is returned by any method that requires Initialize to
// have been called first.
var ErrNotInitialized = errors.New("order: not initialized")

var idSeq atomic.Int64

// NextID returns a monotonically increasing order identifier, unique within
// the process.
func NextID() int64 {
	return idSeq.Add(1)
}

// Order is a food order placed with the kitchen. ShelfLife, DecayRate and
// Unit are the order's intrinsic, immutable properties; the remaining decay
// fields form the "decay anchor" that Initialize and UpdateDecayRate
// maintain so that freshness stays continuous as the order moves between
// shelves. ShelfLife and age are both counted in multiples of Unit, so an
// order taken on a simulation running in milliseconds decays on a
// millisecond clock rather than a second one.
type Order struct {
	ID        int64
	Name      string
	Temp      string
	ShelfLife int
	DecayRate float64
	Unit      time.Duration

	birthDate time.Time

	// addedToShelfDate, currentDecayRate and adjustedShelfLife together form
	// the decay anchor: freshness at any later time t is
	// decay.Freshness(adjustedShelfLife, currentDecayRate, age-since-addedToShelfDate).
	addedToShelfDate  time.Time
	currentDecayRate  float64
	adjustedShelfLife float64
	initialized       bool
}

// New constructs an order with a freshly allocated id, measuring its shelf
// life in seconds.
func New(name, temp string, shelfLife int, decayRate float64) *Order {
	return NewWithUnit(name, temp, shelfLife, decayRate, time.Second)
}

// NewWithUnit constructs an order whose shelf life is measured in multiples
// of unit rather than seconds, matching the CLI's configurable time-unit
// argument.
func NewWithUnit(name, temp string, shelfLife int, decayRate float64, unit time.Duration) *Order {
	if unit <= 0 {
		unit = time.Second
	}
	return &Order{
		ID:        NextID(),
		Name:      name,
		Temp:      temp,
		ShelfLife: shelfLife,
		DecayRate: decayRate,
		Unit:      unit,
	}
}

// Initialize sets the order's birth date and resets its decay anchor to the
// order's original shelf life and decay rate. It must be called exactly once,
// when the kitchen first receives the order, before any other decay-related
// method is used.
func (o *Order) Initialize(now time.Time) {
	o.birthDate = now
	o.addedToShelfDate = now
	o.adjustedShelfLife = float64(o.ShelfLife)
	o.currentDecayRate = o.DecayRate
	o.initialized = true
}

// BirthDate returns the time the order was first placed with the kitchen.
func (o *Order) BirthDate() time.Time {
	return o.birthDate
}

// AddedToShelfDate returns the time the order was added to its current shelf.
func (o *Order) AddedToShelfDate() (time.Time, error) {
	if !o.initialized {
		return time.Time{}, ErrNotInitialized
	}
	return o.addedToShelfDate, nil
}

// CurrentDecayRate returns the decay rate in effect on the order's current
// shelf (the order's intrinsic decay rate multiplied by that shelf's decay
// rate multiplier).
func (o *Order) CurrentDecayRate() (float64, error) {
	if !o.initialized {
		return 0, ErrNotInitialized
	}
	return o.currentDecayRate, nil
}

// AdjustedShelfLife returns the shelf life remaining to the order at the time
// it was added to its current shelf, carrying over any decay accumulated on
// previous shelves. It is a float64, not the order's original integer
// ShelfLife, because it is also the decay anchor UpdateDecayRate carries
// across shelf moves: rounding it would make freshness discontinuous.
func (o *Order) AdjustedShelfLife() (float64, error) {
	if !o.initialized {
		return 0, ErrNotInitialized
	}
	return o.adjustedShelfLife, nil
}

// ageUnits returns how long the order has sat on its current shelf,
// measured in whole multiples of Unit.
func (o *Order) ageUnits(now time.Time) int {
	return int(now.Sub(o.addedToShelfDate) / o.Unit)
}

// Freshness returns the order's current decay value as of now.
func (o *Order) Freshness(now time.Time) (float64, error) {
	if !o.initialized {
		return 0, ErrNotInitialized
	}
	return decay.Freshness(o.adjustedShelfLife, o.currentDecayRate, o.ageUnits(now)), nil
}

// NormalizedFreshness returns Freshness divided by the order's original
// shelf life, giving a value in [0, 1] comparable across orders with
// different shelf lives.
func (o *Order) NormalizedFreshness(now time.Time) (float64, error) {
	f, err := o.Freshness(now)
	if err != nil {
		return 0, err
	}
	return f / float64(o.ShelfLife), nil
}

// LifetimeRemaining returns the number of Units remaining before the
// order's freshness reaches zero, never less than zero.
func (o *Order) LifetimeRemaining(now time.Time) (float64, error) {
	if !o.initialized {
		return 0, ErrNotInitialized
	}
	remaining := decay.Lifetime(o.adjustedShelfLife, o.currentDecayRate) - float64(o.ageUnits(now))
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// UpdateDecayRate moves the order's decay anchor to now, under a new decay
// rate. The adjusted shelf life is reset to the order's current freshness,
// kept as a float64 rather than rounded, so that freshness is exactly
// continuous across the move: an order's freshness the instant before and
// the instant after a shelf change is bit-identical.
func (o *Order) UpdateDecayRate(now time.Time, decayRate float64) error {
	freshness, err := o.Freshness(now)
	if err != nil {
		return err
	}
	o.adjustedShelfLife = freshness
	o.addedToShelfDate = now
	o.currentDecayRate = decayRate
	return nil
}

// Clone returns an independent copy of the order, snapshotting its decay
// anchor. Kitchen event payloads clone every order on every shelf so that a
// delivered OrderEvent reflects a frozen-in-time view rather than a live
// reference that keeps decaying after the event is sent.
func (o *Order) Clone() *Order {
	clone := *o
	return &clone
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%d, name=%q, temp=%q, shelfLife=%d, decayRate=%.2f}",
		o.ID, o.Name, o.Temp, o.ShelfLife, o.DecayRate)
}
