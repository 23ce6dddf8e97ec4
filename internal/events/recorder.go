package events

import (
	"fmt"

	"github.com/tquinto/foodkitchen/internal/kitchen"
)

// Recorder is a secondary consumer of the kitchen's event stream: for
// every event it publishes on a Bus (for anything else in the process
// that wants to react live, such as a dashboard) and appends a durable
// JSONL entry via an AuditLogger. A recording failure never stops or
// alters the primary stream the display renders; see Tee for how a slow
// recorder paces it.
type Recorder struct {
	bus    *Bus
	audit  *AuditLogger
}

// NewRecorder constructs a recorder that publishes to bus and writes to
// audit. Either may be nil to disable that half of the recording.
func NewRecorder(bus *Bus, audit *AuditLogger) *Recorder {
	return &Recorder{bus: bus, audit: audit}
}

// Record publishes and logs a single kitchen event.
func (r *Recorder) Record(e kitchen.Event) error {
	eventType := eventType(e.Type)
	details := map[string]interface{}{
		"order_id":   e.Order.ID,
		"order_name": e.Order.Name,
		"shelf_type": e.ShelfType,
		"temp":       e.Order.Temp,
	}

	if r.bus != nil {
		r.bus.Publish(eventType, details)
	}
	if r.audit != nil {
		if err := r.audit.Log(string(eventType), details); err != nil {
			return fmt.Errorf("events: record order %d: %w", e.Order.ID, err)
		}
	}
	return nil
}

// RecordAll drains events until the channel closes, recording each one.
// After the first audit-logging failure it stops recording but keeps
// draining, so a Tee feeding it never stalls, and returns that failure once
// the channel closes; a publish failure never occurs since Bus.Publish
// cannot fail.
func (r *Recorder) RecordAll(events <-chan kitchen.Event) error {
	var firstErr error
	for e := range events {
		if firstErr != nil {
			continue
		}
		firstErr = r.Record(e)
	}
	return firstErr
}

func eventType(t kitchen.EventType) EventType {
	switch t {
	case kitchen.AddedToShelf:
		return EventAddedToShelf
	case kitchen.PickedUp:
		return EventPickedUp
	case kitchen.DecayedWaste:
		return EventDecayedWaste
	case kitchen.RemovedWaste:
		return EventRemovedWaste
	default:
		return EventType(t.String())
	}
}

// Tee duplicates a kitchen event stream onto two channels so both the
// primary display sink and a secondary Recorder can each consume every
// event independently. Both returned channels close once in does; a slow
// or stalled reader on either channel will backpressure the other.
func Tee(in <-chan kitchen.Event) (<-chan kitchen.Event, <-chan kitchen.Event) {
	a := make(chan kitchen.Event)
	b := make(chan kitchen.Event)
	go func() {
		defer close(a)
		defer close(b)
		for e := range in {
			a <- e
			b <- e
		}
	}()
	return a, b
}
