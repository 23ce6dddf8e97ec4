package events

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscribeWasteAlertsLogsDecayedAndRemovedWaste(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	unsubscribe := SubscribeWasteAlerts(bus, logger)
	defer unsubscribe()

	bus.Publish(EventDecayedWaste, map[string]interface{}{"order_id": int64(1), "order_name": "Burger"})
	bus.Publish(EventRemovedWaste, map[string]interface{}{"order_id": int64(2), "order_name": "Fries"})
	bus.Publish(EventPickedUp, map[string]interface{}{"order_id": int64(3), "order_name": "Shake"})

	time.Sleep(50 * time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "order 1")
	assert.Contains(t, out, "order 2")
	assert.NotContains(t, out, "order 3")
}

func TestSubscribeWasteAlertsUnsubscribeStopsFurtherAlerts(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	unsubscribe := SubscribeWasteAlerts(bus, logger)

	unsubscribe()
	bus.Publish(EventDecayedWaste, map[string]interface{}{"order_id": int64(1), "order_name": "Burger"})

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, buf.String())
}
