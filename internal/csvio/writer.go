package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/payments-engine/internal/models"
)

var snapshotHeader = []string{"client", "available", "held", "total", "locked"}

// Writer encodes account snapshots.
type Writer struct {
	csv *csv.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Write emits the header followed by one row per account and flushes.
func (w *Writer) Write(accounts []models.Account) error {
	if err := w.csv.Write(snapshotHeader); err != nil {
		return err
	}

	row := make([]string, len(snapshotHeader))
	for _, acc := range accounts {
		row[0] = acc.Client.String()
		row[1] = FormatAmount(acc.Available)
		row[2] = FormatAmount(acc.Held)
		row[3] = FormatAmount(acc.Total)
		row[4] = strconv.FormatBool(acc.Locked)
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}

	w.csv.Flush()
	return w.csv.Error()
}

// FormatAmount renders d in plain notation keeping the fractional digits it
// carries, so 1.5000 stays 1.5000.
func FormatAmount(d decimal.Decimal) string {
	// balances only ever hold validated amounts, so scale fits in int32
	if scale := models.Scale(d); scale > 0 {
		return d.StringFixed(int32(scale))
	}
	return d.String()
}
