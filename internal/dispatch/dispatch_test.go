package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tquinto/foodkitchen/internal/order"
)

func TestDispatchDriverWithinBounds(t *testing.T) {
	d := New(2*time.Second, 8*time.Second)
	o := order.New("test", "hot", 100, 0.5)

	for i := 0; i < 100; i++ {
		driver := d.DispatchDriver(o)
		assert.GreaterOrEqual(t, driver.DriveDuration, 2*time.Second)
		assert.LessOrEqual(t, driver.DriveDuration, 8*time.Second)
	}
}

func TestDispatchDriverWithEqualBounds(t *testing.T) {
	d := New(5*time.Second, 5*time.Second)
	o := order.New("test", "hot", 100, 0.5)

	driver := d.DispatchDriver(o)
	assert.Equal(t, 5*time.Second, driver.DriveDuration)
}
