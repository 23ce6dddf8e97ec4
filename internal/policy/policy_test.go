package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tquinto/foodkitchen/internal/order"
	"github.com/tquinto/foodkitchen/internal/shelf"
)

type fakeKitchen struct {
	shelves  map[string]*shelf.Shelf
	overflow *shelf.Shelf
}

func newFakeKitchen() *fakeKitchen {
	hot := shelf.New("hot", 2, 1)
	cold := shelf.New("cold", 2, 1)
	frozen := shelf.New("frozen", 2, 1)
	overflow := shelf.New("overflow", 3, 2)
	overflow.SetAcceptedTypes("hot", "cold", "frozen")
	return &fakeKitchen{
		shelves:  map[string]*shelf.Shelf{"hot": hot, "cold": cold, "frozen": frozen},
		overflow: overflow,
	}
}

func (f *fakeKitchen) Shelf(temp string) *shelf.Shelf { return f.shelves[temp] }
func (f *fakeKitchen) OverflowShelf() *shelf.Shelf     { return f.overflow }

func initOrder(name, temp string, shelfLife int, decayRate float64, now time.Time) *order.Order {
	o := order.New(name, temp, shelfLife, decayRate)
	o.Initialize(now)
	return o
}

func TestOnTempShelfFullPicksLongestOverflowLifetime(t *testing.T) {
	now := time.Now()
	k := newFakeKitchen()

	shortLived := initOrder("short", "hot", 10, 5, now)
	longLived := initOrder("long", "hot", 1000, 0.01, now)
	_, err := k.Shelf("hot").Add(shortLived)
	require.NoError(t, err)
	_, err = k.Shelf("hot").Add(longLived)
	require.NoError(t, err)

	incoming := initOrder("incoming", "hot", 50, 1, now)

	p := New()
	selected, err := p.OnTempShelfFull(k, incoming, now)
	require.NoError(t, err)
	assert.Equal(t, longLived.ID, selected.ID)
}

func TestOnTempShelfFullRestoresDecayRates(t *testing.T) {
	now := time.Now()
	k := newFakeKitchen()
	o := initOrder("a", "hot", 100, 0.5, now)
	_, err := k.Shelf("hot").Add(o)
	require.NoError(t, err)

	incoming := initOrder("incoming", "hot", 50, 1, now)

	p := New()
	_, err = p.OnTempShelfFull(k, incoming, now)
	require.NoError(t, err)

	rate, err := o.CurrentDecayRate()
	require.NoError(t, err)
	assert.Equal(t, k.Shelf("hot").DecayRateMultiplier*o.DecayRate, rate)
}

func TestOnOverflowShelfFullRemovesIncomingWhenItIsWorst(t *testing.T) {
	now := time.Now()
	k := newFakeKitchen()

	// fill hot shelf and overflow shelf with long-lived orders
	for i := 0; i < 2; i++ {
		o := initOrder("hot-filler", "hot", 1000, 0.01, now)
		_, err := k.Shelf("hot").Add(o)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		o := initOrder("overflow-filler", "cold", 1000, 0.01, now)
		_, err := k.OverflowShelf().Add(o)
		require.NoError(t, err)
	}

	incoming := initOrder("incoming", "hot", 1, 10, now)

	p := New()
	removal, err := p.OnOverflowShelfFull(k, incoming, now)
	require.NoError(t, err)
	assert.Equal(t, incoming.ID, removal.Waste.ID)
	assert.Nil(t, removal.Replacement)
}

func TestOnOrderRemovedPicksShortestLivedOverflowMatch(t *testing.T) {
	now := time.Now()
	k := newFakeKitchen()

	soonToExpire := initOrder("soon", "hot", 5, 5, now)
	longLived := initOrder("long", "hot", 1000, 0.01, now)
	_, err := k.OverflowShelf().Add(soonToExpire)
	require.NoError(t, err)
	_, err = k.OverflowShelf().Add(longLived)
	require.NoError(t, err)

	removed := initOrder("removed", "hot", 100, 1, now)

	p := New()
	replacement, err := p.OnOrderRemoved(k, removed, now)
	require.NoError(t, err)
	assert.Equal(t, soonToExpire.ID, replacement.ID)
}

func TestOnOrderRemovedReturnsNilWhenNoMatch(t *testing.T) {
	now := time.Now()
	k := newFakeKitchen()
	removed := initOrder("removed", "frozen", 100, 1, now)

	p := New()
	replacement, err := p.OnOrderRemoved(k, removed, now)
	require.NoError(t, err)
	assert.Nil(t, replacement)
}
