package orderbook

import "sync"

// BookManager is the instrument -> book registry. One book per instrument,
// created on first use; there is no ambient global book.
type BookManager struct {
	books sync.Map
}

func NewBookManager() *BookManager {
	return &BookManager{}
}

// Match runs the incoming order against its instrument's book.
func (m *BookManager) Match(order *Order) (*MatchResult, error) {
	return m.getOrCreateBook(order.Instrument).matchOrder(order)
}

// Add admits an order without matching. Used to seed books (liquidity
// quotes, replayed state); client flow goes through Match.
func (m *BookManager) Add(order *Order) error {
	return m.getOrCreateBook(order.Instrument).addOrder(order)
}

// Remove cancels a resting order. False means the book does not hold it,
// which callers treat as a normal race, not a failure.
func (m *BookManager) Remove(instrument, orderID string) bool {
	return m.getOrCreateBook(instrument).removeOrder(orderID)
}

func (m *BookManager) BestBid(instrument string) (*Order, bool) {
	return m.getOrCreateBook(instrument).bestBid()
}

func (m *BookManager) BestAsk(instrument string) (*Order, bool) {
	return m.getOrCreateBook(instrument).bestAsk()
}

func (m *BookManager) MidPrice(instrument string) (float64, bool) {
	return m.getOrCreateBook(instrument).midPrice()
}

// Snapshot returns up to levels aggregated price levels per side,
// best price first.
func (m *BookManager) Snapshot(instrument string, levels int) *Snapshot {
	return m.getOrCreateBook(instrument).snapshot(levels)
}

func (m *BookManager) getOrCreateBook(instrument string) *orderBook {
	if val, ok := m.books.Load(instrument); ok {
		return val.(*orderBook)
	}
	actual, _ := m.books.LoadOrStore(instrument, newOrderBook(instrument))
	return actual.(*orderBook)
}
