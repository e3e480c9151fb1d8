package service

import (
	"sync"

	"github.com/sebav/tienda/internal/domain"
)

// CartService is the single source of truth for the active cart. It holds
// an ordered list of lines (insertion order = first-add order) and
// broadcasts a snapshot to every subscriber after each mutation.
//
// One instance exists per process, constructed in main and injected into
// its consumers.
type CartService struct {
	mu      sync.Mutex
	lines   []domain.CartLine
	subs    map[int]chan []domain.CartLine
	nextSub int
}

// NewCartService creates an empty cart.
func NewCartService() *CartService {
	return &CartService{subs: make(map[int]chan []domain.CartLine)}
}

// Add puts one unit of the product in the cart: an existing line for the
// same product id is incremented, otherwise a new line is appended.
func (s *CartService) Add(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Product.ID == product.ID {
			s.lines[i].Quantity++
			s.notify()
			return
		}
	}
	s.lines = append(s.lines, domain.CartLine{Product: product, Quantity: 1})
	s.notify()
}

// Items returns a snapshot of the cart. Mutating it does not affect the
// cart's own state.
func (s *CartService) Items() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Increase adds one unit to the line for the given product id.
func (s *CartService) Increase(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			s.lines[i].Quantity++
			s.notify()
			return
		}
	}
}

// Decrease removes one unit from the line for the given product id. A line
// never stays at quantity zero: the last unit removes the line entirely.
func (s *CartService) Decrease(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			if s.lines[i].Quantity > 1 {
				s.lines[i].Quantity--
			} else {
				s.lines = append(s.lines[:i], s.lines[i+1:]...)
			}
			s.notify()
			return
		}
	}
}

// Remove drops the line for the given product id. Subscribers are notified
// even when no line matched.
func (s *CartService) Remove(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.Product.ID != productID {
			kept = append(kept, line)
		}
	}
	s.lines = kept
	s.notify()
}

// Clear empties the cart.
func (s *CartService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.notify()
}

// Settle captures the cart's unit count and total and empties it, all
// under one lock, so a concurrent add can never vanish between the
// capture and the clear.
func (s *CartService) Settle() (count int, total float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range s.lines {
		count += line.Quantity
		total += line.Product.Price * float64(line.Quantity)
	}
	s.lines = nil
	s.notify()
	return count, total
}

// Count returns the total number of units across all lines. Always
// recomputed, never stored.
func (s *CartService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// Total returns the cart total in the catalog's currency.
func (s *CartService) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, line := range s.lines {
		total += line.Product.Price * float64(line.Quantity)
	}
	return total
}

// Subscribe registers a live view of the cart. The channel immediately
// carries the current snapshot and receives a new one after every
// mutation; a slow reader only ever sees the latest state (stale snapshots
// are replaced, not queued). cancel unregisters and closes the channel.
func (s *CartService) Subscribe() (updates <-chan []domain.CartLine, cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []domain.CartLine, 1)
	ch <- s.snapshot()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	cancel = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// snapshot copies the current lines. Callers must hold s.mu.
func (s *CartService) snapshot() []domain.CartLine {
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return lines
}

// notify fans the current snapshot out to all subscribers, replacing any
// snapshot a subscriber has not consumed yet. Callers must hold s.mu.
func (s *CartService) notify() {
	snap := s.snapshot()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
