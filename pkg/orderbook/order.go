package orderbook

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

type OrderStatus string

const (
	StatusOpen            OrderStatus = "OPEN"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
)

// Order is a resting limit order. The book owns it exclusively once admitted:
// Quantity is only mutated by the book, and an order with Quantity == 0 is
// never left resting.
type Order struct {
	ID         string
	Instrument string
	Side       Side
	Price      float64
	Quantity   int64
	UserID     string
	Status     OrderStatus
}
