package display

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tquinto/foodkitchen/internal/kitchen"
	"github.com/tquinto/foodkitchen/internal/order"
	"github.com/tquinto/foodkitchen/internal/shelf"
)

func TestRunWritesEventsAndTallies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	d := New(path, false)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o1 := order.New("Pizza", "hot", 300, 0.1)
	o1.Initialize(now)
	o2 := order.New("Ice Cream", "frozen", 20, 0.63)
	o2.Initialize(now)

	hot := shelf.New("hot", 5, 1)
	_, _ = hot.Add(o1)

	events := make(chan kitchen.Event, 2)
	errs := make(chan error, 1)
	events <- kitchen.Event{Order: o1, Type: kitchen.AddedToShelf, ShelfType: "hot", Time: now, Shelves: []*shelf.Shelf{hot}}
	events <- kitchen.Event{Order: o2, Type: kitchen.DecayedWaste, ShelfType: "frozen", Time: now, Shelves: []*shelf.Shelf{hot}}
	close(events)
	close(errs)

	err := d.Run(events, errs)
	require.NoError(t, err)

	assert.Equal(t, 0, d.pickupCount)
	assert.Equal(t, 1, d.decayCount)
	assert.Equal(t, 2, len(d.seenOrders))

	contents, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(contents), "ADDED_TO_SHELF")
	assert.Contains(t, string(contents), "DECAYED_WASTE")
	assert.Contains(t, string(contents), "orders received: 2, picked up: 0, decayed: 1, removed: 0")
}

func TestRunPropagatesFirstError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	d := New(path, false)

	events := make(chan kitchen.Event)
	errs := make(chan error, 1)
	close(events)
	errs <- errors.New("boom")
	close(errs)

	err := d.Run(events, errs)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestRunWithEmptyOutputPathDiscardsOutput(t *testing.T) {
	d := New("", false)
	events := make(chan kitchen.Event)
	errs := make(chan error)
	close(events)
	close(errs)

	err := d.Run(events, errs)
	require.NoError(t, err)
}

func TestRunWritesSummaryFile(t *testing.T) {
	dir := t.TempDir()
	d := New(filepath.Join(dir, "out.log"), false)
	d.SummaryPath = filepath.Join(dir, "summary.yaml")

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o := order.New("Pizza", "hot", 300, 0.1)
	o.Initialize(now)

	events := make(chan kitchen.Event, 1)
	errs := make(chan error, 1)
	events <- kitchen.Event{Order: o, Type: kitchen.PickedUp, ShelfType: "hot", Time: now}
	close(events)
	close(errs)

	require.NoError(t, d.Run(events, errs))

	contents, readErr := os.ReadFile(d.SummaryPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(contents), "orders_received: 1")
	assert.Contains(t, string(contents), "picked_up: 1")
}
