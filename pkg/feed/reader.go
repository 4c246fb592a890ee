// Package feed adapts the textual order feed to and from the engine:
// a reader for the 8-column order CSV and a writer for the 12-column
// result CSV. The engine itself never sees feed text; rows that fail
// to parse are skipped here and never forwarded half-initialized.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/enzomontariol/matchbook/pkg/lob"
)

// Reader parses order events from an order feed CSV. The first row is
// a header and is always skipped.
type Reader struct {
	src     *csv.Reader
	log     *zap.Logger
	skipped int
}

// NewReader wraps r. A nil logger silences skip reporting.
func NewReader(r io.Reader, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	src := csv.NewReader(r)
	src.FieldsPerRecord = -1
	src.TrimLeadingSpace = true
	return &Reader{src: src, log: logger}
}

// ReadAll consumes the whole feed and returns the well-formed orders
// in file order. Malformed rows are logged, counted and dropped;
// only transport-level failures surface as errors.
func (r *Reader) ReadAll() ([]lob.Order, error) {
	var orders []lob.Order
	for line := 0; ; line++ {
		record, err := r.src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.skip(line, record, err)
				continue
			}
			return nil, fmt.Errorf("reading order feed: %w", err)
		}
		if line == 0 {
			continue // header
		}
		order, err := parseOrder(record)
		if err != nil {
			r.skip(line, record, err)
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Skipped returns how many rows were dropped as malformed.
func (r *Reader) Skipped() int {
	return r.skipped
}

func (r *Reader) skip(line int, record []string, err error) {
	r.skipped++
	r.log.Warn("skipping malformed feed row",
		zap.Int("line", line+1),
		zap.Strings("row", record),
		zap.Error(err))
}

func parseOrder(record []string) (lob.Order, error) {
	if len(record) != 8 {
		return lob.Order{}, fmt.Errorf("expected 8 columns, got %d", len(record))
	}

	var (
		order lob.Order
		err   error
	)
	if order.Timestamp, err = strconv.ParseUint(strings.TrimSpace(record[0]), 10, 64); err != nil {
		return lob.Order{}, fmt.Errorf("timestamp: %w", err)
	}
	if order.ID, err = strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64); err != nil {
		return lob.Order{}, fmt.Errorf("order_id: %w", err)
	}
	order.Instrument = strings.TrimSpace(record[2])
	if order.Instrument == "" {
		return lob.Order{}, errors.New("empty instrument")
	}
	if order.Side, err = lob.ParseSide(record[3]); err != nil {
		return lob.Order{}, err
	}
	if order.Kind, err = lob.ParseKind(record[4]); err != nil {
		return lob.Order{}, err
	}
	if order.Quantity, err = strconv.ParseInt(strings.TrimSpace(record[5]), 10, 64); err != nil {
		return lob.Order{}, fmt.Errorf("quantity: %w", err)
	}
	if order.Quantity <= 0 {
		return lob.Order{}, fmt.Errorf("quantity must be positive, got %d", order.Quantity)
	}
	price := strings.TrimSpace(record[6])
	if price == "" {
		order.Price = decimal.Zero
	} else if order.Price, err = decimal.NewFromString(price); err != nil {
		return lob.Order{}, fmt.Errorf("price: %w", err)
	}
	if order.Action, err = lob.ParseAction(record[7]); err != nil {
		return lob.Order{}, err
	}
	return order, nil
}
