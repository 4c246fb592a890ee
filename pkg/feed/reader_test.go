package feed

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enzomontariol/matchbook/pkg/lob"
)

const sampleFeed = `timestamp,order_id,instrument,side,type,quantity,price,action
1609459200000,1,AAPL,BUY,LIMIT,100,150.25,NEW
1609459200001,2, AAPL , SELL , LIMIT ,50,150.25, NEW
1609459200002,3,AAPL,BUY,MARKET,25,0,NEW
1609459200003,1,AAPL,BUY,LIMIT,100,151.00,MODIFY
1609459200004,1,AAPL,BUY,LIMIT,100,151.00,CANCEL
`

func TestReaderReadAll(t *testing.T) {
	r := NewReader(strings.NewReader(sampleFeed), nil)
	orders, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, orders, 5)
	assert.Zero(t, r.Skipped())

	first := orders[0]
	assert.Equal(t, uint64(1609459200000), first.Timestamp)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "AAPL", first.Instrument)
	assert.Equal(t, lob.Buy, first.Side)
	assert.Equal(t, lob.Limit, first.Kind)
	assert.Equal(t, int64(100), first.Quantity)
	assert.True(t, first.Price.Equal(decimal.RequireFromString("150.25")))
	assert.Equal(t, lob.New, first.Action)

	t.Run("tokens are trimmed", func(t *testing.T) {
		padded := orders[1]
		assert.Equal(t, "AAPL", padded.Instrument)
		assert.Equal(t, lob.Sell, padded.Side)
		assert.Equal(t, lob.New, padded.Action)
	})

	t.Run("market orders carry a zero price", func(t *testing.T) {
		assert.Equal(t, lob.Market, orders[2].Kind)
		assert.True(t, orders[2].Price.IsZero())
	})

	t.Run("actions parse", func(t *testing.T) {
		assert.Equal(t, lob.Modify, orders[3].Action)
		assert.Equal(t, lob.Cancel, orders[4].Action)
	})
}

func TestReaderSkipsMalformedRows(t *testing.T) {
	cases := []struct {
		name string
		row  string
	}{
		{"bad side token", "1,10,AAPL,HOLD,LIMIT,100,150.25,NEW"},
		{"bad type token", "1,11,AAPL,BUY,STOP,100,150.25,NEW"},
		{"bad action token", "1,12,AAPL,BUY,LIMIT,100,150.25,PAUSE"},
		{"non-numeric quantity", "1,13,AAPL,BUY,LIMIT,many,150.25,NEW"},
		{"zero quantity", "1,14,AAPL,BUY,LIMIT,0,150.25,NEW"},
		{"non-numeric price", "1,15,AAPL,BUY,LIMIT,100,cheap,NEW"},
		{"missing columns", "1,16,AAPL,BUY,LIMIT,100,150.25"},
		{"empty instrument", "1,17, ,BUY,LIMIT,100,150.25,NEW"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := "header\n" + tc.row + "\n1,99,AAPL,BUY,LIMIT,100,150.25,NEW\n"
			r := NewReader(strings.NewReader(input), nil)
			orders, err := r.ReadAll()
			require.NoError(t, err)
			assert.Equal(t, 1, r.Skipped())
			// The good row after the bad one still comes through.
			require.Len(t, orders, 1)
			assert.Equal(t, int64(99), orders[0].ID)
		})
	}
}
