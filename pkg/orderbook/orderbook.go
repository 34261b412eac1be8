package orderbook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// orderBook keeps resting orders for one instrument in two price-sorted
// slices. buys ascend by price and sells descend, so the best price on
// either side is always the last element.
//
// All mutating operations run under the book mutex and are atomic: a match
// either applies completely or not at all.
type orderBook struct {
	instrument string

	buys  []*Order
	sells []*Order

	// order ID -> owning side, so a cancel only scans one side
	index map[string]Side

	mu sync.Mutex
}

// MatchResult is the outcome of matching one incoming order.
type MatchResult struct {
	Status    OrderStatus
	Remaining int64
	Trades    []Trade
}

func newOrderBook(instrument string) *orderBook {
	return &orderBook{
		instrument: instrument,
		index:      make(map[string]Side),
	}
}

func (b *orderBook) addOrder(order *Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.insert(order)
}

// insert admits an order to its own side, keeping the side sorted via
// binary search. Orders at an equal price keep their insertion position.
// Caller must hold b.mu.
func (b *orderBook) insert(order *Order) error {
	if err := validate(order); err != nil {
		return err
	}

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = StatusOpen
	}

	switch order.Side {
	case BUY:
		idx := sort.Search(len(b.buys), func(i int) bool {
			return b.buys[i].Price >= order.Price
		})
		b.buys = append(b.buys, nil)
		copy(b.buys[idx+1:], b.buys[idx:])
		b.buys[idx] = order
	case SELL:
		idx := sort.Search(len(b.sells), func(i int) bool {
			return b.sells[i].Price <= order.Price
		})
		b.sells = append(b.sells, nil)
		copy(b.sells[idx+1:], b.sells[idx:])
		b.sells[idx] = order
	}

	b.index[order.ID] = order.Side
	return nil
}

func validate(order *Order) error {
	if order.Side != BUY && order.Side != SELL {
		return ErrInvalidSide
	}
	if order.Price <= 0 {
		return ErrInvalidPrice
	}
	if order.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// removeOrder takes an order out of the book by ID. Removing an order the
// book does not hold returns false, not an error: late and double cancels
// are expected races.
func (b *orderBook) removeOrder(orderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	side, ok := b.index[orderID]
	if !ok {
		return false
	}

	orders := b.buys
	if side == SELL {
		orders = b.sells
	}
	for i, o := range orders {
		if o.ID == orderID {
			if side == BUY {
				b.buys = append(orders[:i], orders[i+1:]...)
			} else {
				b.sells = append(orders[:i], orders[i+1:]...)
			}
			delete(b.index, orderID)
			return true
		}
	}
	return false
}

func (b *orderBook) bestBid() (*Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buys) == 0 {
		return nil, false
	}
	return b.buys[len(b.buys)-1], true
}

func (b *orderBook) bestAsk() (*Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.sells) == 0 {
		return nil, false
	}
	return b.sells[len(b.sells)-1], true
}

func (b *orderBook) midPrice() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.midPriceLocked()
}

// midPriceLocked never guesses a price from a one-sided book.
func (b *orderBook) midPriceLocked() (float64, bool) {
	if len(b.buys) == 0 || len(b.sells) == 0 {
		return 0, false
	}
	bid := b.buys[len(b.buys)-1].Price
	ask := b.sells[len(b.sells)-1].Price
	return (bid + ask) / 2, true
}

// matchOrder runs the matching algorithm for one incoming order.
//
// Execution priority is proximity to the reference price (mid, or the worst
// resting opposite price when the book has no mid), not price-time. The
// matching pass is pure computation; opposite-side mutation happens in a
// single apply pass afterwards, so an incoming order never observes a
// half-mutated book.
func (b *orderBook) matchOrder(incoming *Order) (*MatchResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := validate(incoming); err != nil {
		return nil, err
	}
	if incoming.ID == "" {
		incoming.ID = uuid.NewString()
	}

	opposite := b.sells
	if incoming.Side == SELL {
		opposite = b.buys
	}

	original := incoming.Quantity

	if len(opposite) == 0 {
		if err := b.insert(incoming); err != nil {
			return nil, err
		}
		return &MatchResult{Status: StatusOpen, Remaining: original}, nil
	}

	ref, ok := b.midPriceLocked()
	if !ok {
		// one-sided book: fall back to the worst resting opposite price
		ref = opposite[0].Price
	}

	// candidate pass: price-compatible opposite orders, closest to ref first.
	// Stable sort keeps book order (worst price first) for equal distances.
	candidates := make([]*Order, 0, len(opposite))
	for _, o := range opposite {
		if incoming.Side == BUY && o.Price <= incoming.Price {
			candidates = append(candidates, o)
		} else if incoming.Side == SELL && o.Price >= incoming.Price {
			candidates = append(candidates, o)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		di := abs(candidates[i].Price - ref)
		dj := abs(candidates[j].Price - ref)
		return di < dj
	})

	// fill pass: pure compute, deltas accumulated per candidate
	remaining := original
	fills := make(map[string]int64, len(candidates))
	var trades []Trade
	for _, c := range candidates {
		if remaining == 0 {
			break
		}
		qty := min(remaining, c.Quantity)
		remaining -= qty
		fills[c.ID] += qty
		trades = append(trades, newTrade(incoming, c, qty))
	}

	// apply pass: one atomic sweep over the opposite side
	if len(fills) > 0 {
		if incoming.Side == BUY {
			b.sells = b.applyFills(b.sells, fills)
		} else {
			b.buys = b.applyFills(b.buys, fills)
		}
	}

	result := &MatchResult{Remaining: remaining, Trades: trades}
	switch {
	case remaining == original:
		result.Status = StatusOpen
		incoming.Status = StatusOpen
		if err := b.insert(incoming); err != nil {
			return nil, err
		}
	case remaining > 0:
		result.Status = StatusPartiallyFilled
		incoming.Quantity = remaining
		incoming.Status = StatusPartiallyFilled
		if err := b.insert(incoming); err != nil {
			return nil, err
		}
	default:
		result.Status = StatusFilled
		incoming.Quantity = 0
		incoming.Status = StatusFilled
	}

	return result, nil
}

// applyFills decrements matched quantities and drops fully consumed orders
// in the same pass, so a zero-quantity order is never left resting.
func (b *orderBook) applyFills(orders []*Order, fills map[string]int64) []*Order {
	kept := orders[:0]
	for _, o := range orders {
		qty, ok := fills[o.ID]
		if !ok {
			kept = append(kept, o)
			continue
		}
		o.Quantity -= qty
		if o.Quantity < 0 {
			// matching-logic bug, not a user error
			panic(fmt.Sprintf("orderbook %s: order %s quantity went negative (%d)",
				b.instrument, o.ID, o.Quantity))
		}
		if o.Quantity == 0 {
			o.Status = StatusFilled
			delete(b.index, o.ID)
			continue
		}
		o.Status = StatusPartiallyFilled
		kept = append(kept, o)
	}
	// zero the tail so removed orders don't linger in the backing array
	for i := len(kept); i < len(orders); i++ {
		orders[i] = nil
	}
	return kept
}

func newTrade(incoming, resting *Order, qty int64) Trade {
	t := Trade{
		Instrument: incoming.Instrument,
		Price:      resting.Price,
		Quantity:   qty,
	}
	if incoming.Side == BUY {
		t.BuyOrderID = incoming.ID
		t.BuyUserID = incoming.UserID
		t.SellOrderID = resting.ID
		t.SellUserID = resting.UserID
	} else {
		t.BuyOrderID = resting.ID
		t.BuyUserID = resting.UserID
		t.SellOrderID = incoming.ID
		t.SellUserID = incoming.UserID
	}
	return t
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
