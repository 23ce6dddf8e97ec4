package events

import "log"

// SubscribeWasteAlerts registers a live subscriber on bus that logs every
// wasted order as it happens, independent of the audit log and the
// display's end-of-run tally. It is the Bus's one production consumer: a
// kitchen manager watching stderr sees a wasted order the moment the
// recorder publishes it, rather than waiting for the run to finish and the
// log file to be read. Returns a single function that unsubscribes from
// both event types.
func SubscribeWasteAlerts(bus *Bus, logger *log.Logger) (unsubscribe func()) {
	unsubDecayed := bus.Subscribe(EventDecayedWaste, func(e Event) {
		logAlert(logger, e)
	})
	unsubRemoved := bus.Subscribe(EventRemovedWaste, func(e Event) {
		logAlert(logger, e)
	})
	return func() {
		unsubDecayed()
		unsubRemoved()
	}
}

func logAlert(logger *log.Logger, e Event) {
	logger.Printf("waste alert: order %v (%v) wasted: %s",
		e.Data["order_id"], e.Data["order_name"], e.Type)
}
