package shelf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tquinto/foodkitchen/internal/order"
)

func newInitOrder(temp string) *order.Order {
	o := order.New("test", temp, 100, 0.5)
	o.Initialize(time.Now())
	return o
}

func TestAddRejectsWrongTemperature(t *testing.T) {
	s := New("hot", 2, 1)
	_, err := s.Add(newInitOrder("cold"))
	assert.Error(t, err)
}

func TestAddRejectsWhenFull(t *testing.T) {
	s := New("hot", 1, 1)
	ok, err := s.Add(newInitOrder("hot"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Add(newInitOrder("hot"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, s.IsFull())
}

func TestSetAcceptedTypesWidensOverflowShelf(t *testing.T) {
	s := New("overflow", 5, 2)
	assert.False(t, s.Accepts("hot"))

	s.SetAcceptedTypes("hot", "cold", "frozen")
	assert.True(t, s.Accepts("hot"))
	assert.True(t, s.Accepts("frozen"))
}

func TestRemoveAndContains(t *testing.T) {
	s := New("cold", 3, 1)
	o := newInitOrder("cold")
	_, err := s.Add(o)
	require.NoError(t, err)

	assert.True(t, s.Contains(o))
	assert.True(t, s.Remove(o))
	assert.False(t, s.Contains(o))
	assert.False(t, s.Remove(o))
}

func TestSnapshotIsIndependentDeepCopy(t *testing.T) {
	s := New("hot", 3, 1)
	o := newInitOrder("hot")
	_, err := s.Add(o)
	require.NoError(t, err)

	snap := s.Snapshot()
	require.NoError(t, snap.Orders()[0].UpdateDecayRate(time.Now(), 99))

	rate, err := o.CurrentDecayRate()
	require.NoError(t, err)
	assert.Equal(t, 0.5, rate)
}
