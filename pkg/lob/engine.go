package lob

import "github.com/shopspring/decimal"

// Engine routes order events to per-instrument books and matches NEW
// orders under price-time priority: better price always wins, equal
// prices fill in strict arrival order, nothing else breaks ties.
//
// ProcessOrder is synchronous and single-threaded; it never blocks
// and never returns an error. Hosts embedding the engine concurrently
// must serialize calls per instrument (books share no state, so
// different instruments may run in parallel once each book has been
// created).
type Engine struct {
	books map[string]*OrderBook
}

// NewEngine creates an engine with no books; books appear lazily on
// the first order referencing their instrument.
func NewEngine() *Engine {
	return &Engine{books: make(map[string]*OrderBook)}
}

// Book returns the book for an instrument. A missing book is not an
// error, just an instrument no order has referenced yet.
func (e *Engine) Book(instrument string) (*OrderBook, bool) {
	book, ok := e.books[instrument]
	return book, ok
}

// ProcessOrder applies one order event and returns one result per
// order touched. The incoming order's result is always first;
// resident orders it traded against follow in fill order. Failures
// surface as REJECTED results, never as faults, so one bad event
// cannot halt a stream.
func (e *Engine) ProcessOrder(order Order) []OrderResult {
	book, ok := e.books[order.Instrument]
	if !ok {
		book = NewOrderBook(order.Instrument)
		e.books[order.Instrument] = book
	}

	switch order.Action {
	case New:
		return e.handleNew(order, book)
	case Cancel:
		return e.handleCancel(order, book)
	case Modify:
		return e.handleModify(order, book)
	default:
		return []OrderResult{newResult(order, Rejected)}
	}
}

// handleNew matches the order against the opposite side, then rests
// any unfilled limit remainder at the back of its price level. Market
// remainders are never rested: a market order either trades against
// what is there or its remainder dies with the call.
func (e *Engine) handleNew(order Order, book *OrderBook) []OrderResult {
	if book.Contains(order.ID) {
		// Duplicate resident id; inserting would corrupt the index.
		return []OrderResult{newResult(order, Rejected)}
	}

	var results []OrderResult
	if order.Kind == Limit {
		results = e.matchLimit(order, book)
	} else {
		results = e.matchMarket(order, book)
	}

	aggressor := &results[0]
	if order.Kind == Limit && aggressor.Status != Executed {
		rest := order
		rest.Quantity = order.Quantity - aggressor.ExecutedQuantity
		book.AddOrder(rest)
	}
	return results
}

func (e *Engine) handleCancel(order Order, book *OrderBook) []OrderResult {
	status := Rejected
	if book.CancelOrder(order.ID) {
		status = Canceled
	}
	return []OrderResult{newResult(order, status)}
}

// handleModify cancels and re-inserts, so a modified order always
// forfeits its time priority and returns to PENDING regardless of any
// fill history. It does not run matching; the replacement only trades
// through later NEW events on the opposite side.
func (e *Engine) handleModify(order Order, book *OrderBook) []OrderResult {
	status := Rejected
	if book.ModifyOrder(order) {
		status = Pending
	}
	return []OrderResult{newResult(order, status)}
}

// crosses reports whether a resting level at levelPrice is admissible
// for a limit aggressor: sells at or under a buyer's limit, buys at
// or over a seller's limit.
func crosses(aggressor Order, levelPrice decimal.Decimal) bool {
	if aggressor.Side == Buy {
		return levelPrice.Cmp(aggressor.Price) <= 0
	}
	return levelPrice.Cmp(aggressor.Price) >= 0
}

// matchLimit walks the opposite side best price first and consumes
// admissible liquidity in FIFO order. The scan stops at the first
// level past the aggressor's limit; levels are price-ordered, so
// nothing beyond it can cross. A limit order with no matches stays
// PENDING and will rest in full.
func (e *Engine) matchLimit(order Order, book *OrderBook) []OrderResult {
	aggressor := newResult(order, Pending)
	results := make([]OrderResult, 1, 4)
	remaining := order.Quantity

	opp := book.side(order.Side.Opposite())
	for remaining > 0 && len(opp.levels) > 0 {
		lvl := opp.levels[0]
		if !crosses(order, lvl.price) {
			break
		}
		remaining = e.consumeLevel(book, opp, lvl, order, remaining, &aggressor, &results)
	}

	if aggressor.ExecutedQuantity > 0 {
		if remaining == 0 {
			aggressor.Status = Executed
		} else {
			aggressor.Status = PartiallyExecuted
		}
	}
	results[0] = aggressor
	return results
}

// matchMarket is the market-order variant: no price filter, every
// level is admissible until quantity or liquidity runs out. With zero
// fills the order is REJECTED outright; with partial fills the fills
// stand and the order ends PARTIALLY_EXECUTED for the remainder.
func (e *Engine) matchMarket(order Order, book *OrderBook) []OrderResult {
	aggressor := newResult(order, Pending)
	results := make([]OrderResult, 1, 4)
	remaining := order.Quantity

	opp := book.side(order.Side.Opposite())
	for remaining > 0 && len(opp.levels) > 0 {
		lvl := opp.levels[0]
		remaining = e.consumeLevel(book, opp, lvl, order, remaining, &aggressor, &results)
	}

	if aggressor.ExecutedQuantity > 0 {
		if remaining == 0 {
			aggressor.Status = Executed
		} else {
			aggressor.Status = PartiallyExecuted
		}
	} else {
		aggressor.Status = Rejected
	}
	results[0] = aggressor
	return results
}

// consumeLevel fills the aggressor against one level's FIFO queue.
// Fully filled residents are removed from the book; a partially
// filled resident is reduced in place and keeps its queue position.
// Every fill executes at the resident's own price, so price
// improvement goes to the resting order, never the aggressor. The
// emptied level is dropped from the side. Returns the aggressor's
// remaining quantity.
func (e *Engine) consumeLevel(
	book *OrderBook,
	opp *bookSide,
	lvl *priceLevel,
	order Order,
	remaining int64,
	aggressor *OrderResult,
	results *[]OrderResult,
) int64 {
	for remaining > 0 && len(lvl.queue) > 0 {
		h := lvl.queue[0]
		resident := book.arena.get(h)
		fill := min(remaining, resident.Quantity)

		res := newResult(*resident, PartiallyExecuted)
		res.ExecutedQuantity = fill
		res.ExecutionPrice = lvl.price
		res.CounterpartyID = order.ID

		if fill == resident.Quantity {
			res.Status = Executed
			lvl.queue = lvl.queue[1:]
			delete(book.index, res.ID)
			book.arena.release(h)
		} else {
			resident.Quantity -= fill
		}

		aggressor.ExecutedQuantity += fill
		aggressor.ExecutionPrice = lvl.price
		aggressor.CounterpartyID = res.ID
		remaining -= fill
		*results = append(*results, res)
	}
	if len(lvl.queue) == 0 {
		// Index 0 is always the level just consumed.
		opp.removeLevel(0)
	}
	return remaining
}
