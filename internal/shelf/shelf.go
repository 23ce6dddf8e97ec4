// Package shelf implements the bounded, typed storage a kitchen keeps
// orders on while they wait for pickup.
package shelf

import (
	"fmt"

	"github.com/tquinto/foodkitchen/internal/order"
)

// ErrInvalidOrderType is returned by Add when an order's temperature is not
// among the shelf's accepted types.
type ErrInvalidOrderType struct {
	Temp string
}

func (e *ErrInvalidOrderType) Error() string {
	return fmt.Sprintf("shelf: invalid order type %q", e.Temp)
}

// Shelf is a capacity-bounded collection of orders of one or more accepted
// temperature types. Orders placed on a shelf decay at the order's own rate
// multiplied by DecayRateMultiplier. Callers are expected to serialize
// access externally; Shelf itself performs no locking, matching the single
// kitchen-wide lock the coordinator holds.
type Shelf struct {
	Type                string
	Limit               int
	DecayRateMultiplier float64

	acceptedTypes map[string]struct{}
	orders        map[int64]*order.Order
}

// New constructs a shelf that, by default, accepts only orders whose
// temperature matches its own type. Call SetAcceptedTypes to widen that,
// as the kitchen does for the overflow shelf.
func New(temp string, limit int, decayRateMultiplier float64) *Shelf {
	return &Shelf{
		Type:                temp,
		Limit:               limit,
		DecayRateMultiplier: decayRateMultiplier,
		acceptedTypes:       map[string]struct{}{temp: {}},
		orders:              make(map[int64]*order.Order),
	}
}

// SetAcceptedTypes replaces the set of order temperatures this shelf will
// accept. The overflow shelf must have this called on it after
// construction to accept every temperature shelved elsewhere in the
// kitchen; a freshly constructed shelf accepts only its own type.
func (s *Shelf) SetAcceptedTypes(temps ...string) {
	s.acceptedTypes = make(map[string]struct{}, len(temps))
	for _, t := range temps {
		s.acceptedTypes[t] = struct{}{}
	}
}

// Accepts reports whether the shelf will accept an order of the given
// temperature.
func (s *Shelf) Accepts(temp string) bool {
	_, ok := s.acceptedTypes[temp]
	return ok
}

// Add places an order on the shelf. It returns false, without error, if the
// shelf was already at capacity. It returns ErrInvalidOrderType if the
// order's temperature is not accepted by this shelf.
func (s *Shelf) Add(o *order.Order) (bool, error) {
	if !s.Accepts(o.Temp) {
		return false, &ErrInvalidOrderType{Temp: o.Temp}
	}
	if len(s.orders) >= s.Limit {
		return false, nil
	}
	s.orders[o.ID] = o
	return true, nil
}

// Remove takes an order off the shelf. It reports whether the order had
// been on the shelf at all.
func (s *Shelf) Remove(o *order.Order) bool {
	if _, ok := s.orders[o.ID]; !ok {
		return false
	}
	delete(s.orders, o.ID)
	return true
}

// Contains reports whether the order is currently on the shelf.
func (s *Shelf) Contains(o *order.Order) bool {
	_, ok := s.orders[o.ID]
	return ok
}

// IsFull reports whether the shelf has reached its capacity.
func (s *Shelf) IsFull() bool {
	return len(s.orders) >= s.Limit
}

// Len returns the number of orders currently on the shelf.
func (s *Shelf) Len() int {
	return len(s.orders)
}

// Orders returns the orders currently on the shelf, in no particular order.
func (s *Shelf) Orders() []*order.Order {
	out := make([]*order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out
}

// Snapshot returns a deep copy of the shelf: a new shelf with the same
// type, limits and accepted types, holding clones of every order currently
// on it. Kitchen event payloads use this to capture a frozen-in-time view
// of shelf state that won't keep decaying after the event is sent.
func (s *Shelf) Snapshot() *Shelf {
	clone := &Shelf{
		Type:                s.Type,
		Limit:               s.Limit,
		DecayRateMultiplier: s.DecayRateMultiplier,
		acceptedTypes:       make(map[string]struct{}, len(s.acceptedTypes)),
		orders:              make(map[int64]*order.Order, len(s.orders)),
	}
	for t := range s.acceptedTypes {
		clone.acceptedTypes[t] = struct{}{}
	}
	for id, o := range s.orders {
		clone.orders[id] = o.Clone()
	}
	return clone
}
