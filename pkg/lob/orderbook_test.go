package lob

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func limitOrder(id int64, side Side, qty int64, price string) Order {
	return Order{
		Timestamp:  uint64(id),
		ID:         id,
		Instrument: "AAPL",
		Side:       side,
		Kind:       Limit,
		Quantity:   qty,
		Price:      d(price),
		Action:     New,
	}
}

// checkBookInvariants verifies the structural invariants that must
// hold after any sequence of mutations: the id index and the levels
// agree on residency, no level is empty, and level iteration is
// strictly ordered by price.
func checkBookInvariants(t *testing.T, b *OrderBook) {
	t.Helper()

	seen := make(map[int64]int)
	for _, side := range []*bookSide{&b.bids, &b.asks} {
		var prev decimal.Decimal
		for i, lvl := range side.levels {
			require.NotEmpty(t, lvl.queue, "empty level at price %s", lvl.price)
			if i > 0 {
				if side.descending {
					require.True(t, lvl.price.LessThan(prev), "buy levels not strictly descending")
				} else {
					require.True(t, lvl.price.GreaterThan(prev), "sell levels not strictly ascending")
				}
			}
			prev = lvl.price
			for _, h := range lvl.queue {
				ord := b.arena.get(h)
				require.NotNil(t, ord, "stale handle in level %s", lvl.price)
				require.True(t, ord.Price.Equal(lvl.price), "order price disagrees with its level")
				seen[ord.ID]++
			}
		}
	}

	require.Len(t, seen, len(b.index), "index size disagrees with levels")
	for id, count := range seen {
		require.Equal(t, 1, count, "order %d resident in more than one queue", id)
		_, ok := b.index[id]
		require.True(t, ok, "order %d in a level but not in the index", id)
	}
}

func TestOrderBookAddOrder(t *testing.T) {
	book := NewOrderBook("AAPL")

	book.AddOrder(limitOrder(1, Buy, 100, "150.25"))
	book.AddOrder(limitOrder(2, Buy, 50, "150.30"))
	book.AddOrder(limitOrder(3, Buy, 25, "150.25"))
	book.AddOrder(limitOrder(4, Sell, 75, "150.40"))
	book.AddOrder(limitOrder(5, Sell, 10, "150.35"))

	t.Run("buy levels descend, sell levels ascend", func(t *testing.T) {
		buys := book.BuySide()
		require.Len(t, buys, 2)
		assert.True(t, buys[0].Price.Equal(d("150.30")))
		assert.True(t, buys[1].Price.Equal(d("150.25")))

		sells := book.SellSide()
		require.Len(t, sells, 2)
		assert.True(t, sells[0].Price.Equal(d("150.35")))
		assert.True(t, sells[1].Price.Equal(d("150.40")))
	})

	t.Run("same price preserves arrival order", func(t *testing.T) {
		buys := book.BuySide()
		require.Len(t, buys[1].Orders, 2)
		assert.Equal(t, int64(1), buys[1].Orders[0].ID)
		assert.Equal(t, int64(3), buys[1].Orders[1].ID)
	})

	checkBookInvariants(t, book)
}

func TestOrderBookCancelOrder(t *testing.T) {
	book := NewOrderBook("AAPL")
	book.AddOrder(limitOrder(1, Buy, 100, "150.25"))
	book.AddOrder(limitOrder(2, Buy, 50, "150.25"))

	t.Run("cancel removes only the targeted order", func(t *testing.T) {
		assert.True(t, book.CancelOrder(1))
		buys := book.BuySide()
		require.Len(t, buys, 1)
		require.Len(t, buys[0].Orders, 1)
		assert.Equal(t, int64(2), buys[0].Orders[0].ID)
		checkBookInvariants(t, book)
	})

	t.Run("emptied level disappears", func(t *testing.T) {
		assert.True(t, book.CancelOrder(2))
		assert.Empty(t, book.BuySide())
		assert.Equal(t, 0, book.Len())
		checkBookInvariants(t, book)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		assert.False(t, book.CancelOrder(1))
		assert.False(t, book.CancelOrder(42))
		checkBookInvariants(t, book)
	})
}

func TestOrderBookModifyOrder(t *testing.T) {
	book := NewOrderBook("AAPL")
	book.AddOrder(limitOrder(1, Buy, 100, "150.25"))
	book.AddOrder(limitOrder(2, Buy, 50, "150.25"))

	t.Run("modify moves order to the back of the new level", func(t *testing.T) {
		replacement := limitOrder(1, Buy, 100, "151.00")
		replacement.Action = Modify
		require.True(t, book.ModifyOrder(replacement))

		buys := book.BuySide()
		require.Len(t, buys, 2)
		assert.True(t, buys[0].Price.Equal(d("151.00")))
		assert.Equal(t, int64(1), buys[0].Orders[0].ID)
		assert.True(t, buys[1].Price.Equal(d("150.25")))
		checkBookInvariants(t, book)
	})

	t.Run("modify at same price loses time priority", func(t *testing.T) {
		book.AddOrder(limitOrder(3, Buy, 10, "150.25"))
		replacement := limitOrder(2, Buy, 50, "150.25")
		require.True(t, book.ModifyOrder(replacement))

		buys := book.BuySide()
		require.Len(t, buys[1].Orders, 2)
		assert.Equal(t, int64(3), buys[1].Orders[0].ID)
		assert.Equal(t, int64(2), buys[1].Orders[1].ID)
		checkBookInvariants(t, book)
	})

	t.Run("modify of unknown id inserts nothing", func(t *testing.T) {
		before := book.Len()
		assert.False(t, book.ModifyOrder(limitOrder(99, Sell, 5, "150.00")))
		assert.Equal(t, before, book.Len())
		assert.False(t, book.Contains(99))
		checkBookInvariants(t, book)
	})
}

func TestOrderBookChurn(t *testing.T) {
	// Interleaved inserts and removals across many price levels; the
	// structural invariants must hold at every step.
	book := NewOrderBook("AAPL")

	id := int64(0)
	for round := 0; round < 20; round++ {
		for i := 0; i < 5; i++ {
			id++
			side := Buy
			price := fmt.Sprintf("%d.%02d", 100+i, (round*7)%100)
			if (id+int64(i))%2 == 0 {
				side = Sell
				price = fmt.Sprintf("%d.%02d", 110+i, (round*3)%100)
			}
			book.AddOrder(limitOrder(id, side, int64(10+i), price))
		}
		// Drop every third resident so far.
		for victim := int64(1); victim <= id; victim += 3 {
			book.CancelOrder(victim)
		}
		checkBookInvariants(t, book)
	}
}

func TestArenaHandleReuse(t *testing.T) {
	var a arena

	h1 := a.alloc(limitOrder(1, Buy, 10, "1.00"))
	require.NotNil(t, a.get(h1))
	require.True(t, a.release(h1))

	t.Run("released handle goes stale", func(t *testing.T) {
		assert.Nil(t, a.get(h1))
		assert.False(t, a.release(h1))
	})

	t.Run("reused slot does not resurrect the old handle", func(t *testing.T) {
		h2 := a.alloc(limitOrder(2, Buy, 20, "2.00"))
		assert.Equal(t, h1.idx, h2.idx)
		assert.Nil(t, a.get(h1))
		require.NotNil(t, a.get(h2))
		assert.Equal(t, int64(2), a.get(h2).ID)
	})
}
