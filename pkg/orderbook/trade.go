package orderbook

// Trade records one fill between an incoming order and a resting order.
// One incoming order may produce zero, one or many trades in a single match.
type Trade struct {
	Instrument  string
	BuyOrderID  string
	SellOrderID string
	BuyUserID   string
	SellUserID  string
	Price       float64
	Quantity    int64
}
