// Package csvio decodes ledger events from, and encodes account snapshots to,
// comma separated tables.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

var (
	ErrUnknownType  = errors.New("unknown transaction type")
	ErrUnknownField = errors.New("unknown field")
	ErrMissingField = errors.New("missing field")
	ErrMalformedRow = errors.New("malformed row")
)

// plainAmount is an optionally signed decimal without exponent notation.
var plainAmount = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// maxAmountDigits bounds the significant digits of an amount, as a 96-bit
// decimal would.
const maxAmountDigits = 28

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// Reader decodes transactions from a table with the header
// "type, client, tx, amount". Whitespace around fields is ignored.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	width   int
}

// NewReader reads and checks the header row of r.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // dispute rows may omit the trailing amount
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("header: %w", ErrMissingField)
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch name {
		case colType, colClient, colTx, colAmount:
		default:
			return nil, fmt.Errorf("header column %q: %w", name, ErrUnknownField)
		}
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("header column %q repeated: %w", name, ErrMalformedRow)
		}
		columns[name] = i
	}

	for _, name := range []string{colType, colClient, colTx} {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("header column %q: %w", name, ErrMissingField)
		}
	}

	return &Reader{csv: cr, columns: columns, width: len(header)}, nil
}

// Next decodes the next row. It returns io.EOF after the last row.
func (r *Reader) Next() (models.Transaction, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.Transaction{}, io.EOF
		}
		return models.Transaction{}, err
	}

	line, _ := r.csv.FieldPos(0)
	tx, err := r.decode(record)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("line %d: %w", line, err)
	}
	return tx, nil
}

func (r *Reader) decode(record []string) (models.Transaction, error) {
	if len(record) > r.width {
		return models.Transaction{}, fmt.Errorf("%d fields for %d columns: %w", len(record), r.width, ErrMalformedRow)
	}

	rawType, _ := r.field(record, colType)
	kind, ok := models.ParseEventKind(rawType)
	if !ok {
		return models.Transaction{}, fmt.Errorf("%q: %w", rawType, ErrUnknownType)
	}

	client, err := r.parseUint(record, colClient, 16)
	if err != nil {
		return models.Transaction{}, err
	}
	txID, err := r.parseUint(record, colTx, 32)
	if err != nil {
		return models.Transaction{}, err
	}

	if !kind.MovesValue() {
		return models.NewTransaction(kind, models.ClientID(client), models.TxID(txID), decimal.Zero), nil
	}

	rawAmount, present := r.field(record, colAmount)
	if !present {
		return models.Transaction{}, fmt.Errorf("%s without %s: %w", kind, colAmount, ErrMissingField)
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return models.Transaction{}, err
	}

	return models.NewTransaction(kind, models.ClientID(client), models.TxID(txID), amount), nil
}

// parseAmount accepts plain decimals only. Exponent notation would let a single
// row describe a number with billions of digits.
func parseAmount(raw string) (decimal.Decimal, error) {
	if !plainAmount.MatchString(raw) {
		return decimal.Decimal{}, fmt.Errorf("%s %q: %w", colAmount, raw, ErrMalformedRow)
	}

	digits := strings.TrimLeft(strings.NewReplacer("+", "", "-", "", ".", "").Replace(raw), "0")
	if len(digits) > maxAmountDigits {
		return decimal.Decimal{}, fmt.Errorf("%s %q has more than %d digits: %w", colAmount, raw, maxAmountDigits, ErrMalformedRow)
	}

	amount, err := decimal.NewFromString(strings.TrimPrefix(raw, "+"))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s %q: %w", colAmount, raw, ErrMalformedRow)
	}
	return amount, nil
}

// field returns the trimmed value of column name and whether it is non-empty.
func (r *Reader) field(record []string, name string) (string, bool) {
	i, ok := r.columns[name]
	if !ok || i >= len(record) {
		return "", false
	}
	value := strings.TrimSpace(record[i])
	return value, value != ""
}

func (r *Reader) parseUint(record []string, name string, bits int) (uint64, error) {
	raw, present := r.field(record, name)
	if !present {
		return 0, fmt.Errorf("%s: %w", name, ErrMissingField)
	}
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, raw, ErrMalformedRow)
	}
	return v, nil
}

var _ interfaces.EventSource = (*Reader)(nil)
