package orderbook

// PriceLevel aggregates resting quantity at one price.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// Snapshot is a point-in-time view of a book's depth, best price first on
// both sides.
type Snapshot struct {
	Instrument string       `json:"instrumentId"`
	Bids       []PriceLevel `json:"bids"`
	Asks       []PriceLevel `json:"asks"`
}

func (b *orderBook) snapshot(levels int) *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := &Snapshot{Instrument: b.instrument}
	snap.Bids = aggregateFromTail(b.buys, levels)
	snap.Asks = aggregateFromTail(b.sells, levels)
	return snap
}

// aggregateFromTail walks a side from best (tail) to worst, merging equal
// prices into levels.
func aggregateFromTail(orders []*Order, levels int) []PriceLevel {
	var out []PriceLevel
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		if n := len(out); n > 0 && out[n-1].Price == o.Price {
			out[n-1].Quantity += o.Quantity
			continue
		}
		if levels > 0 && len(out) == levels {
			break
		}
		out = append(out, PriceLevel{Price: o.Price, Quantity: o.Quantity})
	}
	return out
}
