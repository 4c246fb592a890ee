package lob

import (
	"sort"

	"github.com/shopspring/decimal"
)

// priceLevel holds the resident orders at one price on one side of
// the book, FIFO by arrival. Levels are removed as soon as they
// empty; a present level always has at least one order.
type priceLevel struct {
	price decimal.Decimal
	queue []handle
}

// bookSide is a price-ordered sequence of levels: descending for
// bids, ascending for asks, so index 0 is always the best price.
type bookSide struct {
	levels     []*priceLevel
	descending bool
}

// search returns the index where price belongs and whether a level
// at exactly that price already exists.
func (s *bookSide) search(price decimal.Decimal) (int, bool) {
	i := sort.Search(len(s.levels), func(i int) bool {
		c := s.levels[i].price.Cmp(price)
		if s.descending {
			return c <= 0
		}
		return c >= 0
	})
	if i < len(s.levels) && s.levels[i].price.Equal(price) {
		return i, true
	}
	return i, false
}

// upsert returns the level at price, inserting an empty one at its
// sorted position if absent.
func (s *bookSide) upsert(price decimal.Decimal) *priceLevel {
	i, ok := s.search(price)
	if ok {
		return s.levels[i]
	}
	lvl := &priceLevel{price: price}
	s.levels = append(s.levels, nil)
	copy(s.levels[i+1:], s.levels[i:])
	s.levels[i] = lvl
	return lvl
}

func (s *bookSide) removeLevel(i int) {
	copy(s.levels[i:], s.levels[i+1:])
	s.levels[len(s.levels)-1] = nil
	s.levels = s.levels[:len(s.levels)-1]
}

// Level is a read-only view of one price level: the price and the
// resident orders in FIFO order.
type Level struct {
	Price  decimal.Decimal
	Orders []Order
}

// OrderBook owns the resident orders of a single instrument, indexed
// by price level and by order id. It is a pure data structure: no
// matching logic, no locking. Hosts that share a book across
// goroutines must serialize access themselves.
type OrderBook struct {
	instrument string
	bids       bookSide
	asks       bookSide
	arena      arena
	index      map[int64]handle
}

// NewOrderBook creates an empty book for one instrument.
func NewOrderBook(instrument string) *OrderBook {
	return &OrderBook{
		instrument: instrument,
		bids:       bookSide{descending: true},
		asks:       bookSide{},
		index:      make(map[int64]handle),
	}
}

// Instrument returns the instrument this book belongs to.
func (b *OrderBook) Instrument() string {
	return b.instrument
}

func (b *OrderBook) side(s Side) *bookSide {
	if s == Buy {
		return &b.bids
	}
	return &b.asks
}

// AddOrder rests order at its price, behind every earlier arrival at
// that level, and registers it in the id index. The caller must
// ensure the id is not already resident.
func (b *OrderBook) AddOrder(order Order) {
	h := b.arena.alloc(order)
	lvl := b.side(order.Side).upsert(order.Price)
	lvl.queue = append(lvl.queue, h)
	b.index[order.ID] = h
}

// CancelOrder removes the resident order with the given id. It
// reports false, with no state change, when the id is not resident.
func (b *OrderBook) CancelOrder(orderID int64) bool {
	h, ok := b.index[orderID]
	if !ok {
		return false
	}
	ord := b.arena.get(h)
	side := b.side(ord.Side)
	i, found := side.search(ord.Price)
	if found {
		lvl := side.levels[i]
		for qi, qh := range lvl.queue {
			if qh == h {
				lvl.queue = append(lvl.queue[:qi], lvl.queue[qi+1:]...)
				break
			}
		}
		if len(lvl.queue) == 0 {
			side.removeLevel(i)
		}
	}
	b.arena.release(h)
	delete(b.index, orderID)
	return true
}

// ModifyOrder replaces the resident order carrying newOrder's id with
// newOrder: a cancel followed by a fresh insert, so the order is
// re-queued at the back of its (possibly new) price level and gives
// up its original time priority. Reports false, without inserting,
// when the id is not resident.
func (b *OrderBook) ModifyOrder(newOrder Order) bool {
	if !b.CancelOrder(newOrder.ID) {
		return false
	}
	b.AddOrder(newOrder)
	return true
}

// Contains reports whether an order with the given id is resident.
func (b *OrderBook) Contains(orderID int64) bool {
	_, ok := b.index[orderID]
	return ok
}

// Len returns the number of resident orders across both sides.
func (b *OrderBook) Len() int {
	return b.arena.len()
}

func (b *OrderBook) sideView(s *bookSide) []Level {
	out := make([]Level, 0, len(s.levels))
	for _, lvl := range s.levels {
		orders := make([]Order, 0, len(lvl.queue))
		for _, h := range lvl.queue {
			if ord := b.arena.get(h); ord != nil {
				orders = append(orders, *ord)
			}
		}
		out = append(out, Level{Price: lvl.price, Orders: orders})
	}
	return out
}

// BuySide returns the bid levels, best (highest) price first. The
// returned slices are copies; mutating them does not touch the book.
func (b *OrderBook) BuySide() []Level {
	return b.sideView(&b.bids)
}

// SellSide returns the ask levels, best (lowest) price first.
func (b *OrderBook) SellSide() []Level {
	return b.sideView(&b.asks)
}
