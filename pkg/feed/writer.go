package feed

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/enzomontariol/matchbook/pkg/lob"
)

// resultHeader is the fixed result column order every sink relies on.
var resultHeader = []string{
	"timestamp", "order_id", "instrument", "side", "type",
	"quantity", "price", "action", "status",
	"executed_quantity", "execution_price", "counterparty_id",
}

// ResultWriter emits outcome records as result CSV rows, one row per
// record, in the order the engine produced them.
type ResultWriter struct {
	w *csv.Writer
}

func NewResultWriter(w io.Writer) *ResultWriter {
	return &ResultWriter{w: csv.NewWriter(w)}
}

// WriteHeader writes the column header row.
func (w *ResultWriter) WriteHeader() error {
	return w.w.Write(resultHeader)
}

// Write appends one result row.
func (w *ResultWriter) Write(res lob.OrderResult) error {
	return w.w.Write([]string{
		strconv.FormatUint(res.Timestamp, 10),
		strconv.FormatInt(res.ID, 10),
		res.Instrument,
		string(res.Side),
		string(res.Kind),
		strconv.FormatInt(res.Quantity, 10),
		res.Price.String(),
		string(res.Action),
		string(res.Status),
		strconv.FormatInt(res.ExecutedQuantity, 10),
		res.ExecutionPrice.String(),
		strconv.FormatInt(res.CounterpartyID, 10),
	})
}

// Flush pushes buffered rows to the underlying writer.
func (w *ResultWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
