package kitchen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tquinto/foodkitchen/internal/dispatch"
	"github.com/tquinto/foodkitchen/internal/order"
	"github.com/tquinto/foodkitchen/internal/policy"
	"github.com/tquinto/foodkitchen/internal/shelf"
)

type fakeSource struct {
	orders []*order.Order
}

func (s *fakeSource) Orders(ctx context.Context) (<-chan *order.Order, <-chan error) {
	out := make(chan *order.Order, len(s.orders))
	errs := make(chan error)
	for _, o := range s.orders {
		out <- o
	}
	close(out)
	close(errs)
	return out, errs
}

func newTestKitchen(clk *fakeClock) *Kitchen {
	return newTestKitchenWithDispatcher(clk, dispatch.New(time.Hour, time.Hour))
}

func newTestKitchenWithDispatcher(clk *fakeClock, d *dispatch.Dispatcher) *Kitchen {
	hot := shelf.New("hot", 1, 1)
	cold := shelf.New("cold", 1, 1)
	frozen := shelf.New("frozen", 1, 1)
	overflow := shelf.New("overflow", 2, 2)
	overflow.SetAcceptedTypes("hot", "cold", "frozen")

	return NewWithClock(policy.New(), d, []*shelf.Shelf{hot, cold, frozen}, overflow, clk)
}

func drain(t *testing.T, events <-chan Event, errs <-chan error) ([]Event, error) {
	t.Helper()
	var collected []Event
	var finalErr error
	for {
		select {
		case e, ok := <-events:
			if !ok {
				events = nil
			} else {
				collected = append(collected, e)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
			} else {
				finalErr = err
			}
		}
		if events == nil && errs == nil {
			break
		}
	}
	return collected, finalErr
}

func TestProcessOrdersSingleOrderAddedAndPickedUp(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := newFakeClock(start)
	k := newTestKitchenWithDispatcher(clk, dispatch.New(time.Second, time.Second))

	o := order.New("Pizza", "hot", 300, 0.1)
	src := &fakeSource{orders: []*order.Order{o}}

	events, errs := k.ProcessOrders(context.Background(), src)

	// give the ingest goroutine a chance to process before advancing time
	time.Sleep(10 * time.Millisecond)
	clk.Advance(time.Second) // fires the driver timer

	collected, err := drain(t, events, errs)
	require.NoError(t, err)
	require.Len(t, collected, 2)
	assert.Equal(t, AddedToShelf, collected[0].Type)
	assert.Equal(t, PickedUp, collected[1].Type)
}

func TestProcessOrdersOverflowWhenTempShelfFull(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := newFakeClock(start)
	k := newTestKitchen(clk)

	first := order.New("Burger", "hot", 1000, 0.01)
	second := order.New("Fries", "hot", 1000, 0.01)
	src := &fakeSource{orders: []*order.Order{first, second}}

	events, errs := k.ProcessOrders(context.Background(), src)
	time.Sleep(10 * time.Millisecond)
	clk.Advance(2 * time.Hour)

	collected, err := drain(t, events, errs)
	require.NoError(t, err)

	var overflowCount int
	for _, e := range collected {
		if e.Type == AddedToShelf && e.ShelfType == "overflow" {
			overflowCount++
		}
	}
	assert.Equal(t, 1, overflowCount, "exactly one of the two orders should have landed on overflow")
}

func TestOnDriverArrivedEmitsRemovedWasteWhenOrderAlreadyDecayed(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := newFakeClock(start)
	k := newTestKitchen(clk)
	k.events = make(chan Event, 4)
	k.errs = make(chan error, 1)

	// shelfLife=3, decayRate=1 on the hot shelf (multiplier 1): freshness
	// is already clamped to zero by age 2 (3 - 2*(1+1) would be -1).
	// Placed directly on the shelf with no decay timer scheduled, so the
	// only way this order's decay gets noticed is the driver-arrival
	// callback observing freshness(now) <= 0 for itself — exactly the
	// case a driver finding an order at or past the instant its decay
	// timer would have fired must also handle correctly.
	o := order.New("Sundae", "hot", 3, 1)
	o.Initialize(start)
	hot := k.Shelf("hot")
	added, err := hot.Add(o)
	require.NoError(t, err)
	require.True(t, added)

	clk.Advance(2 * time.Second)

	k.onDriverArrived(dispatch.Driver{Order: o})

	select {
	case e := <-k.events:
		assert.Equal(t, RemovedWaste, e.Type, "a driver finding an already-decayed order must emit RemovedWaste, not DecayedWaste or PickedUp")
	default:
		t.Fatal("expected onDriverArrived to emit an event")
	}
}

func TestProcessOrdersDecaysToWaste(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := newFakeClock(start)
	k := newTestKitchen(clk)

	o := order.New("Ice Cream", "frozen", 2, 5)
	src := &fakeSource{orders: []*order.Order{o}}

	events, errs := k.ProcessOrders(context.Background(), src)
	time.Sleep(10 * time.Millisecond)
	clk.Advance(time.Second) // fires the decay timer well before the driver timer

	collected, err := drain(t, events, errs)
	require.NoError(t, err)
	require.Len(t, collected, 2)
	assert.Equal(t, AddedToShelf, collected[0].Type)
	assert.Equal(t, DecayedWaste, collected[1].Type)
}
