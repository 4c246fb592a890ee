package lob

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side represents order side (buy/sell).
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Kind represents the pricing type of an order.
type Kind string

const (
	Limit  Kind = "LIMIT"
	Market Kind = "MARKET"
)

// Action represents the lifecycle event carried by an incoming order.
type Action string

const (
	New    Action = "NEW"
	Modify Action = "MODIFY"
	Cancel Action = "CANCEL"
)

// Status represents the outcome of processing an order.
// Executed, Canceled and Rejected are terminal; Pending and
// PartiallyExecuted orders may still be touched by later events.
type Status string

const (
	Pending           Status = "PENDING"
	PartiallyExecuted Status = "PARTIALLY_EXECUTED"
	Executed          Status = "EXECUTED"
	Canceled          Status = "CANCELED"
	Rejected          Status = "REJECTED"
)

// ParseSide converts a feed token into a Side. Surrounding whitespace
// is trimmed before comparison.
func ParseSide(s string) (Side, error) {
	switch Side(strings.TrimSpace(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// ParseKind converts a feed token into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.TrimSpace(s)) {
	case Limit:
		return Limit, nil
	case Market:
		return Market, nil
	}
	return "", fmt.Errorf("unknown order type %q", s)
}

// ParseAction converts a feed token into an Action.
func ParseAction(s string) (Action, error) {
	switch Action(strings.TrimSpace(s)) {
	case New:
		return New, nil
	case Modify:
		return Modify, nil
	case Cancel:
		return Cancel, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Order is a single order event submitted to the engine. For NEW
// events it describes the order to match and possibly rest; for
// MODIFY it is the full replacement; for CANCEL only ID and
// Instrument are meaningful.
type Order struct {
	Timestamp  uint64
	ID         int64
	Instrument string
	Side       Side
	Kind       Kind
	Quantity   int64
	Price      decimal.Decimal
	Action     Action
}

// OrderResult is the outcome record emitted for every order touched
// during one ProcessOrder call: the original order fields plus the
// execution state reached during that call. ExecutedQuantity is
// cumulative for the call; ExecutionPrice and CounterpartyID reflect
// the last fill applied, not an aggregate.
type OrderResult struct {
	Order
	Status           Status
	ExecutedQuantity int64
	ExecutionPrice   decimal.Decimal
	CounterpartyID   int64
}

func newResult(o Order, status Status) OrderResult {
	return OrderResult{
		Order:          o,
		Status:         status,
		ExecutionPrice: decimal.Zero,
	}
}
