package orderbook

import "errors"

var (
	ErrInvalidSide     = errors.New("invalid order side")
	ErrInvalidPrice    = errors.New("invalid order price")
	ErrInvalidQuantity = errors.New("invalid order quantity")
)
