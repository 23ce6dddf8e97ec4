// Package policy implements the kitchen's overflow strategy: the rules for
// moving orders to and from the overflow shelf, and for choosing which
// order to sacrifice when every shelf is full.
package policy

import (
	"time"

	"github.com/tquinto/foodkitchen/internal/order"
	"github.com/tquinto/foodkitchen/internal/shelf"
)

// ShelfProvider is the subset of kitchen state an overflow policy needs in
// order to decide how to shift orders around. The kitchen coordinator
// implements this interface; policy stays decoupled from the coordinator
// itself so the two packages don't need to import each other.
type ShelfProvider interface {
	Shelf(temp string) *shelf.Shelf
	OverflowShelf() *shelf.Shelf
}

// Removal describes the outcome of OnOverflowShelfFull: the order to throw
// out as waste, and, unless Waste is the incoming order itself, the order
// that should take its place.
type Removal struct {
	Waste       *order.Order
	Replacement *order.Order
}

// OverflowPolicy implements the longest/shortest-projected-lifetime overflow
// strategy: when moving an order to the overflow shelf, prefer the order
// that would live longest there; when freeing a spot, prefer to rescue the
// order that is about to expire soonest.
type OverflowPolicy struct{}

// New returns the overflow policy used by the kitchen.
func New() *OverflowPolicy {
	return &OverflowPolicy{}
}

// OnTempShelfFull is invoked when an incoming order's designated
// temperature shelf is full but the overflow shelf has room. It picks, among
// the incoming order and every order already on that temperature shelf,
// whichever one would survive longest on the overflow shelf, and returns
// that order (the rest stay where they are).
func (p *OverflowPolicy) OnTempShelfFull(kitchen ShelfProvider, incoming *order.Order, now time.Time) (*order.Order, error) {
	tempShelf := kitchen.Shelf(incoming.Temp)
	candidates := append(tempShelf.Orders(), incoming)

	multiplier := kitchen.OverflowShelf().DecayRateMultiplier
	if err := probeDecayRates(candidates, now, multiplier); err != nil {
		return nil, err
	}
	selected, err := selectLongestLifetime(candidates, now)
	if err != nil {
		return nil, err
	}
	if err := restoreDecayRates(kitchen, candidates, now); err != nil {
		return nil, err
	}
	return selected, nil
}

// OnOverflowShelfFull is invoked when both an incoming order's temperature
// shelf and the overflow shelf are full. It picks a removal candidate with
// the shortest remaining lifetime among the incoming order, every overflow
// order, and every order on a full temperature shelf eligible for
// replacement, then works out what should replace it.
func (p *OverflowPolicy) OnOverflowShelfFull(kitchen ShelfProvider, incoming *order.Order, now time.Time) (Removal, error) {
	overflow := kitchen.OverflowShelf()

	eligible := eligibleTempOrders(kitchen, incoming)

	candidates := append([]*order.Order{incoming}, overflow.Orders()...)
	candidates = append(candidates, eligible...)

	removalCandidate, err := selectShortestLifetime(candidates, now)
	if err != nil {
		return Removal{}, err
	}

	if removalCandidate == incoming {
		return Removal{Waste: incoming}, nil
	}

	if kitchen.Shelf(removalCandidate.Temp).Contains(removalCandidate) {
		// removal candidate lives on a normal shelf: replace it with the
		// shortest-lived overflow order of its temperature, counting the
		// incoming order among the candidates when it has that temperature.
		replacementCandidates := ordersForTemp(overflow.Orders(), removalCandidate.Temp)
		if incoming.Temp == removalCandidate.Temp {
			replacementCandidates = append(replacementCandidates, incoming)
		}
		replacement, err := selectShortestLifetime(replacementCandidates, now)
		if err != nil {
			return Removal{}, err
		}
		return Removal{Waste: removalCandidate, Replacement: replacement}, nil
	}

	// removal candidate must be on the overflow shelf: replace it with
	// whichever eligible order (of the incoming order's temperature, plus
	// the incoming order itself) would live longest on the overflow shelf.
	var replacementCandidates []*order.Order
	for _, o := range eligible {
		if o.Temp == incoming.Temp {
			replacementCandidates = append(replacementCandidates, o)
		}
	}
	replacementCandidates = append(replacementCandidates, incoming)

	multiplier := overflow.DecayRateMultiplier
	if err := probeDecayRates(replacementCandidates, now, multiplier); err != nil {
		return Removal{}, err
	}
	replacement, err := selectLongestLifetime(replacementCandidates, now)
	if err != nil {
		return Removal{}, err
	}
	if err := restoreDecayRates(kitchen, replacementCandidates, now); err != nil {
		return Removal{}, err
	}

	return Removal{Waste: removalCandidate, Replacement: replacement}, nil
}

// OnOrderRemoved is invoked whenever an order is removed from a temperature
// shelf, either picked up or decayed to waste, freeing a spot that an
// overflow order of the same temperature could take. It returns nil if no
// eligible overflow order exists.
func (p *OverflowPolicy) OnOrderRemoved(kitchen ShelfProvider, removed *order.Order, now time.Time) (*order.Order, error) {
	candidates := ordersForTemp(kitchen.OverflowShelf().Orders(), removed.Temp)
	if len(candidates) == 0 {
		return nil, nil
	}
	return selectShortestLifetime(candidates, now)
}

func eligibleTempOrders(kitchen ShelfProvider, incoming *order.Order) []*order.Order {
	temps := map[string]struct{}{incoming.Temp: {}}
	for _, o := range kitchen.OverflowShelf().Orders() {
		temps[o.Temp] = struct{}{}
	}

	var out []*order.Order
	for temp := range temps {
		s := kitchen.Shelf(temp)
		if s != nil && s.IsFull() {
			out = append(out, s.Orders()...)
		}
	}
	return out
}

func ordersForTemp(orders []*order.Order, temp string) []*order.Order {
	var out []*order.Order
	for _, o := range orders {
		if o.Temp == temp {
			out = append(out, o)
		}
	}
	return out
}

// probeDecayRates temporarily applies a decay rate multiplier to every
// candidate so their projected lifetimes reflect sitting on the overflow
// shelf. It is always paired with restoreDecayRates using the same `now`,
// which restores each candidate's decay rate and its freshness at `now`;
// the decay anchor is not restored: it stays moved to `now`, with the
// adjusted shelf life set to the freshness at `now`.
func probeDecayRates(candidates []*order.Order, now time.Time, multiplier float64) error {
	for _, o := range candidates {
		if err := o.UpdateDecayRate(now, multiplier*o.DecayRate); err != nil {
			return err
		}
	}
	return nil
}

// restoreDecayRates undoes probeDecayRates, putting each candidate back
// under the multiplier of its own designated shelf. Because both calls
// share the same `now`, freshness at `now` is unaffected by the round trip.
func restoreDecayRates(kitchen ShelfProvider, candidates []*order.Order, now time.Time) error {
	for _, o := range candidates {
		multiplier := kitchen.Shelf(o.Temp).DecayRateMultiplier
		if err := o.UpdateDecayRate(now, multiplier*o.DecayRate); err != nil {
			return err
		}
	}
	return nil
}

func selectLongestLifetime(candidates []*order.Order, now time.Time) (*order.Order, error) {
	var best *order.Order
	var bestLifetime float64
	for _, o := range candidates {
		lifetime, err := o.LifetimeRemaining(now)
		if err != nil {
			return nil, err
		}
		if best == nil || lifetime > bestLifetime {
			best = o
			bestLifetime = lifetime
		}
	}
	return best, nil
}

func selectShortestLifetime(candidates []*order.Order, now time.Time) (*order.Order, error) {
	var best *order.Order
	var bestLifetime float64
	for _, o := range candidates {
		lifetime, err := o.LifetimeRemaining(now)
		if err != nil {
			return nil, err
		}
		if best == nil || lifetime < bestLifetime {
			best = o
			bestLifetime = lifetime
		}
	}
	return best, nil
}
