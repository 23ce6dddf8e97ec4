// Package kitchen implements the order-processing coordinator: it places
// incoming orders on shelves, dispatches drivers, ages orders toward waste,
// and shifts orders to and from the overflow shelf as shelves fill and
// empty. It emits a single, ordered, non-dropping stream of Events.
package kitchen

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tquinto/foodkitchen/internal/clock"
	"github.com/tquinto/foodkitchen/internal/dispatch"
	"github.com/tquinto/foodkitchen/internal/kerrors"
	"github.com/tquinto/foodkitchen/internal/order"
	"github.com/tquinto/foodkitchen/internal/policy"
	"github.com/tquinto/foodkitchen/internal/shelf"
)

// LogLevel filters the kitchen's diagnostic messages.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Source supplies the kitchen with a cold stream of orders. Orders must
// close its order channel when exhausted, and may send one error on its
// error channel to signal a fatal parse failure that should stop the
// simulation.
type Source interface {
	Orders(ctx context.Context) (<-chan *order.Order, <-chan error)
}

// OverflowPolicy is the subset of policy.OverflowPolicy the kitchen drives.
// Defined here so an alternate policy implementation can be substituted in
// tests without importing the concrete policy package.
type OverflowPolicy interface {
	OnTempShelfFull(kitchen policy.ShelfProvider, incoming *order.Order, now time.Time) (*order.Order, error)
	OnOverflowShelfFull(kitchen policy.ShelfProvider, incoming *order.Order, now time.Time) (policy.Removal, error)
	OnOrderRemoved(kitchen policy.ShelfProvider, removed *order.Order, now time.Time) (*order.Order, error)
}

// Kitchen is the coordinator. All of its state is protected by a single
// mutex: the kitchen processes one order event at a time, whether that
// event originates from the order source or from a decay/driver timer
// firing in the background.
type Kitchen struct {
	mu sync.Mutex

	shelves  map[string]*shelf.Shelf
	overflow *shelf.Shelf

	strategy   OverflowPolicy
	dispatcher *dispatch.Dispatcher
	clk        clock.Clock

	decayTimers  map[int64]clock.Timer
	driverTimers map[int64]clock.Timer

	allOrdersProcessed bool
	closeOnce          sync.Once

	events chan Event
	errs   chan error

	logger   *log.Logger
	logLevel LogLevel
}

// New constructs a kitchen with the given temperature shelves and overflow
// shelf. The overflow shelf's accepted types should already be configured
// by the caller (see shelf.Shelf.SetAcceptedTypes) since a kitchen has no
// opinion on which temperatures are allowed to overflow.
func New(strategy OverflowPolicy, dispatcher *dispatch.Dispatcher, temperatureShelves []*shelf.Shelf, overflow *shelf.Shelf) *Kitchen {
	return NewWithClock(strategy, dispatcher, temperatureShelves, overflow, clock.Real{})
}

// NewWithClock is New with an injectable clock, used by tests to drive
// decay and driver timers deterministically.
func NewWithClock(strategy OverflowPolicy, dispatcher *dispatch.Dispatcher, temperatureShelves []*shelf.Shelf, overflow *shelf.Shelf, clk clock.Clock) *Kitchen {
	shelves := make(map[string]*shelf.Shelf, len(temperatureShelves))
	for _, s := range temperatureShelves {
		shelves[s.Type] = s
	}
	return &Kitchen{
		shelves:      shelves,
		overflow:     overflow,
		strategy:     strategy,
		dispatcher:   dispatcher,
		clk:          clk,
		decayTimers:  make(map[int64]clock.Timer),
		driverTimers: make(map[int64]clock.Timer),
		logger:       log.New(os.Stderr, "", 0),
		logLevel:     LogLevelInfo,
	}
}

// SetLogLevel changes the minimum level of diagnostic message the kitchen
// reports about its own operation.
func (k *Kitchen) SetLogLevel(level LogLevel) {
	k.logLevel = level
}

func (k *Kitchen) log(level LogLevel, format string, args ...any) {
	if level < k.logLevel {
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
	k.logger.Printf("%s %s kitchen: %s", time.Now().Format(time.RFC3339), levelStr, msg)
}

// Shelf returns the temperature shelf for temp, or nil if there is none.
// Implements policy.ShelfProvider.
func (k *Kitchen) Shelf(temp string) *shelf.Shelf {
	return k.shelves[temp]
}

// OverflowShelf returns the kitchen's overflow shelf. Implements
// policy.ShelfProvider.
func (k *Kitchen) OverflowShelf() *shelf.Shelf {
	return k.overflow
}

// ProcessOrders consumes orders from source and returns a stream of events
// describing everything that happens to them, plus an error stream that
// carries at most one fatal error. Both channels close once every order has
// either been picked up or thrown out as waste and the source is exhausted.
// If an error occurs, the event stream closes early without further events.
func (k *Kitchen) ProcessOrders(ctx context.Context, source Source) (<-chan Event, <-chan error) {
	k.events = make(chan Event, 64)
	k.errs = make(chan error, 1)

	ordersCh, srcErrCh := source.Orders(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case err, ok := <-srcErrCh:
				if ok && err != nil {
					return fmt.Errorf("%w: %v", kerrors.ErrParse, err)
				}
			case o, ok := <-ordersCh:
				if !ok {
					k.mu.Lock()
					k.allOrdersProcessed = true
					k.checkForCompletionLocked()
					k.mu.Unlock()
					return nil
				}
				k.mu.Lock()
				err := k.processOrder(o)
				k.mu.Unlock()
				if err != nil {
					return err
				}
			}
		}
	})

	// errgroup fans the order-ingestion goroutine's outcome back through a
	// single first-error point; decay and driver timers report their own
	// failures straight to k.fail since they fire independently of this
	// goroutine's lifetime.
	go func() {
		if err := g.Wait(); err != nil && err != context.Canceled {
			k.fail(err)
		}
	}()

	return k.events, k.errs
}

// fail publishes a fatal error and ensures the event stream is closed so
// consumers don't block waiting for more events that will never arrive.
func (k *Kitchen) fail(err error) {
	k.closeOnce.Do(func() {
		k.log(LogLevelError, "halting simulation: %v", err)
		k.errs <- err
		close(k.errs)
		close(k.events)
	})
}

// checkForCompletionLocked closes the event and error streams once the
// source is exhausted and no order is still waiting on a decay or driver
// timer. Callers must hold k.mu.
func (k *Kitchen) checkForCompletionLocked() bool {
	if k.allOrdersProcessed && len(k.decayTimers) == 0 && len(k.driverTimers) == 0 {
		k.closeOnce.Do(func() {
			close(k.errs)
			close(k.events)
		})
		return true
	}
	return false
}

// processOrder handles a single incoming order: it initializes the order's
// decay anchor, dispatches a driver, and either places it directly on its
// designated shelf or asks the overflow policy how to make room.
func (k *Kitchen) processOrder(o *order.Order) error {
	now := k.clk.Now()
	o.Initialize(now)

	k.dispatchDriver(o, now)

	dest := k.Shelf(o.Temp)
	added, err := dest.Add(o)
	if err != nil {
		return err
	}
	if added {
		return k.orderAddedToShelf(now, o, dest)
	}

	if !k.overflow.IsFull() {
		moveCandidate, err := k.strategy.OnTempShelfFull(k, o, now)
		if err != nil {
			return err
		}
		return k.shiftOnTempShelfFull(now, o, moveCandidate)
	}

	removal, err := k.strategy.OnOverflowShelfFull(k, o, now)
	if err != nil {
		return err
	}
	return k.shiftOnOverflowShelfFull(now, o, removal.Waste, removal.Replacement)
}

// orderAddedToShelf applies the shelf's decay rate multiplier to the order,
// schedules its decay timer, cancels any previous one, and emits
// AddedToShelf.
func (k *Kitchen) orderAddedToShelf(now time.Time, o *order.Order, dest *shelf.Shelf) error {
	k.cancelTimer(k.decayTimers, o.ID)

	if err := o.UpdateDecayRate(now, o.DecayRate*dest.DecayRateMultiplier); err != nil {
		return err
	}

	lifetime, err := o.LifetimeRemaining(now)
	if err != nil {
		return err
	}
	delay := roundUp(lifetime, o.Unit)

	k.decayTimers[o.ID] = k.clk.AfterFunc(delay, func() {
		k.onOrderDecayed(o)
	})

	k.sendEvent(o, AddedToShelf, dest.Type, now)
	return nil
}

// roundUp converts amount, a count of whole and fractional units, into the
// next whole multiple of unit at or above it: the decay timer must never
// fire before an order has actually reached zero freshness.
func roundUp(amount float64, unit time.Duration) time.Duration {
	whole := time.Duration(amount) * unit
	if float64(whole/unit) < amount {
		whole += unit
	}
	return whole
}

// shiftOnTempShelfFull moves orderToMove to the overflow shelf, making room
// on its designated shelf, which the incoming order then takes if
// orderToMove wasn't the incoming order itself.
func (k *Kitchen) shiftOnTempShelfFull(now time.Time, incoming, orderToMove *order.Order) error {
	if orderToMove == incoming {
		added, err := k.overflow.Add(incoming)
		if err != nil {
			return err
		}
		if !added {
			return fmt.Errorf("%w: failed to add incoming order to overflow shelf", kerrors.ErrInvalidProcedure)
		}
		return k.orderAddedToShelf(now, orderToMove, k.overflow)
	}

	native := k.Shelf(orderToMove.Temp)
	if !native.Remove(orderToMove) {
		return fmt.Errorf("%w: failed to remove overflow candidate from native shelf", kerrors.ErrInvalidProcedure)
	}
	added, err := k.overflow.Add(orderToMove)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("%w: failed to add overflow candidate to overflow shelf", kerrors.ErrInvalidProcedure)
	}
	if err := k.orderAddedToShelf(now, orderToMove, k.overflow); err != nil {
		return err
	}

	added, err = native.Add(incoming)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("%w: failed to move incoming order replacement to native shelf", kerrors.ErrInvalidProcedure)
	}
	return k.orderAddedToShelf(now, incoming, native)
}

// shiftOnOverflowShelfFull removes wasteOrder (the order the overflow
// policy chose to sacrifice) and, unless it was the incoming order itself,
// fills its spot with replacement and moves the incoming order into
// whichever spot that freed up.
func (k *Kitchen) shiftOnOverflowShelfFull(now time.Time, incoming, wasteOrder, replacement *order.Order) error {
	if native := k.Shelf(wasteOrder.Temp); native != nil && native.Remove(wasteOrder) {
		k.orderWasted(now, wasteOrder, native, RemovedWaste)

		if replacement == incoming {
			return k.addAndTrack(now, native, incoming)
		}

		if !k.overflow.Remove(replacement) {
			return fmt.Errorf("%w: failed to remove replacement candidate from overflow shelf", kerrors.ErrInvalidProcedure)
		}
		if err := k.addAndTrack(now, native, replacement); err != nil {
			return err
		}
		return k.addAndTrack(now, k.overflow, incoming)
	}

	if k.overflow.Remove(wasteOrder) {
		k.orderWasted(now, wasteOrder, k.overflow, RemovedWaste)

		if replacement == incoming {
			return k.addAndTrack(now, k.overflow, incoming)
		}

		native := k.Shelf(replacement.Temp)
		if !native.Remove(replacement) {
			return fmt.Errorf("%w: failed to remove replacement candidate from native shelf", kerrors.ErrInvalidProcedure)
		}
		if err := k.addAndTrack(now, k.overflow, replacement); err != nil {
			return err
		}
		return k.addAndTrack(now, native, incoming)
	}

	// wasteOrder was the incoming order itself and never touched a shelf.
	k.orderWasted(now, wasteOrder, nil, RemovedWaste)
	return nil
}

// addAndTrack adds o to dest and, on success, starts tracking its decay
// timer and emits AddedToShelf. Failure to add indicates the caller's own
// bookkeeping about shelf occupancy was wrong.
func (k *Kitchen) addAndTrack(now time.Time, dest *shelf.Shelf, o *order.Order) error {
	added, err := dest.Add(o)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("%w: failed to place order on %s shelf", kerrors.ErrInvalidProcedure, dest.Type)
	}
	return k.orderAddedToShelf(now, o, dest)
}

// onOrderDecayed is the decay timer callback: the order's freshness has
// reached zero, so it must be thrown out and, if it came off a temperature
// shelf, replaced from the overflow shelf.
func (k *Kitchen) onOrderDecayed(o *order.Order) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.clk.Now()
	delete(k.decayTimers, o.ID)

	if native := k.Shelf(o.Temp); native != nil && native.Remove(o) {
		k.orderWasted(now, o, native, DecayedWaste)
		if err := k.replaceWithOverflowItem(now, o, native); err != nil {
			k.fail(err)
			return
		}
	} else if k.overflow.Remove(o) {
		k.orderWasted(now, o, k.overflow, DecayedWaste)
	}

	k.checkForCompletionLocked()
}

// dispatchDriver schedules a driver-arrival timer for the order.
func (k *Kitchen) dispatchDriver(o *order.Order, now time.Time) {
	driver := k.dispatcher.DispatchDriver(o)
	k.driverTimers[o.ID] = k.clk.AfterFunc(driver.DriveDuration, func() {
		k.onDriverArrived(driver)
	})
}

// onDriverArrived is the driver-arrival timer callback. If the order has
// already decayed past zero by the time the driver shows up, it's thrown
// out as waste instead of delivered; this is possible because the decay
// timer is rounded up to the next whole time unit, leaving a narrow window
// where both timers could be pending for an order that has, in fact, fully
// decayed.
func (k *Kitchen) onDriverArrived(driver dispatch.Driver) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.clk.Now()
	o := driver.Order
	delete(k.driverTimers, o.ID)

	current := k.Shelf(o.Temp)
	if current == nil || !current.Contains(o) {
		if k.overflow.Contains(o) {
			current = k.overflow
		} else {
			current = nil
		}
	}

	if current == nil {
		k.checkForCompletionLocked()
		return
	}

	freshness, err := o.Freshness(now)
	if err != nil {
		k.checkForCompletionLocked()
		return
	}

	removed := current.Remove(o)
	if !removed {
		k.checkForCompletionLocked()
		return
	}

	if freshness <= 0 {
		// the decay timer is rounded up to the next whole time unit, so a
		// driver can arrive a moment after an order has, in fact, already
		// fully decayed. It's the driver timer that fired here, not the
		// decay timer, so this is a removal, not a decay.
		k.orderWasted(now, o, current, RemovedWaste)
	} else {
		k.orderPickedUp(now, o, current)
	}

	if current != k.overflow {
		if err := k.replaceWithOverflowItem(now, o, current); err != nil {
			k.fail(err)
			return
		}
	}

	k.checkForCompletionLocked()
}

// replaceWithOverflowItem fills a spot freed up on shelf with whichever
// overflow order the policy deems the best fit, if any.
func (k *Kitchen) replaceWithOverflowItem(now time.Time, removed *order.Order, dest *shelf.Shelf) error {
	if dest == k.overflow {
		return nil
	}
	candidate, err := k.strategy.OnOrderRemoved(k, removed, now)
	if err != nil {
		return err
	}
	if candidate == nil {
		return nil
	}
	if !k.overflow.Remove(candidate) {
		return fmt.Errorf("%w: failed to remove order from overflow shelf", kerrors.ErrInvalidProcedure)
	}
	added, err := dest.Add(candidate)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("%w: failed to add overflow order to new shelf", kerrors.ErrInvalidProcedure)
	}
	return k.orderAddedToShelf(now, candidate, dest)
}

func (k *Kitchen) orderWasted(now time.Time, o *order.Order, from *shelf.Shelf, eventType EventType) {
	k.cancelTimer(k.decayTimers, o.ID)
	k.cancelTimer(k.driverTimers, o.ID)
	k.log(LogLevelWarn, "order %d %s from %s shelf", o.ID, eventType, shelfTypeOf(from))
	k.sendEvent(o, eventType, shelfTypeOf(from), now)
}

func (k *Kitchen) orderPickedUp(now time.Time, o *order.Order, from *shelf.Shelf) {
	k.cancelTimer(k.decayTimers, o.ID)
	k.cancelTimer(k.driverTimers, o.ID)
	k.log(LogLevelDebug, "order %d picked up from %s shelf", o.ID, shelfTypeOf(from))
	k.sendEvent(o, PickedUp, shelfTypeOf(from), now)
}

func shelfTypeOf(s *shelf.Shelf) string {
	if s == nil {
		return ""
	}
	return s.Type
}

func (k *Kitchen) cancelTimer(timers map[int64]clock.Timer, id int64) {
	if t, ok := timers[id]; ok {
		t.Stop()
		delete(timers, id)
	}
}

// sendEvent publishes an event with a frozen-in-time snapshot of every
// shelf in the kitchen.
func (k *Kitchen) sendEvent(o *order.Order, eventType EventType, shelfType string, now time.Time) {
	shelves := make([]*shelf.Shelf, 0, len(k.shelves)+1)
	for _, s := range k.shelves {
		shelves = append(shelves, s.Snapshot())
	}
	shelves = append(shelves, k.overflow.Snapshot())

	k.events <- Event{
		Order:     o.Clone(),
		Type:      eventType,
		ShelfType: shelfType,
		Time:      now,
		Shelves:   shelves,
	}
}
