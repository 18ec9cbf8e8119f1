package csvio

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/payments-engine/internal/models"
)

func readAll(t *testing.T, input string) ([]models.Transaction, error) {
	t.Helper()
	r, err := NewReader(strings.NewReader(input))
	if err != nil {
		return nil, err
	}

	var txs []models.Transaction
	for {
		tx, err := r.Next()
		if errors.Is(err, io.EOF) {
			return txs, nil
		}
		if err != nil {
			return txs, err
		}
		txs = append(txs, tx)
	}
}

func TestReaderDecodesTrimmedRows(t *testing.T) {
	input := `type, client, tx, amount
deposit,1,1,1.0
deposit, 2, 2, 2.0
deposit,     1, 3,                    2.0
withdrawal, 1, 4,    1.5
withdrawal, 2, 5, 3.0
chargeback, 1, 1,
dispute, 2, 2,
resolve, 2, 2
`
	txs, err := readAll(t, input)
	require.NoError(t, err)

	want := []models.Transaction{
		models.NewDeposit(1, 1, decimal.RequireFromString("1.0")),
		models.NewDeposit(2, 2, decimal.RequireFromString("2.0")),
		models.NewDeposit(1, 3, decimal.RequireFromString("2.0")),
		models.NewWithdrawal(1, 4, decimal.RequireFromString("1.5")),
		models.NewWithdrawal(2, 5, decimal.RequireFromString("3.0")),
		models.NewChargeback(1, 1),
		models.NewDispute(2, 2),
		models.NewResolve(2, 2),
	}
	require.Len(t, txs, len(want))
	for i := range want {
		assert.Equal(t, want[i].Kind, txs[i].Kind, "row %d", i)
		assert.Equal(t, want[i].Client, txs[i].Client, "row %d", i)
		assert.Equal(t, want[i].Tx, txs[i].Tx, "row %d", i)

		wantAmount, wantOK := want[i].Amount()
		gotAmount, gotOK := txs[i].Amount()
		assert.Equal(t, wantOK, gotOK, "row %d", i)
		assert.True(t, wantAmount.Equal(gotAmount), "row %d", i)
	}
}

func TestReaderKeepsExcessPrecisionForValidation(t *testing.T) {
	txs, err := readAll(t, "type,client,tx,amount\ndeposit,1,1,0.12345\n")
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.ErrorIs(t, txs[0].Validate(), models.ErrExcessPrecision)
}

func TestReaderFatalRows(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"unknown type", "type,client,tx,amount\nrefund,1,1,1\n", ErrUnknownType},
		{"capitalised type", "type,client,tx,amount\nDeposit,1,1,1\n", ErrUnknownType},
		{"unknown header", "type,client,tx,amount,memo\ndeposit,1,1,1,x\n", ErrUnknownField},
		{"missing header column", "type,client,amount\ndeposit,1,1\n", ErrMissingField},
		{"empty input", "", ErrMissingField},
		{"deposit without amount", "type,client,tx,amount\ndeposit,1,1,\n", ErrMissingField},
		{"withdrawal without amount column", "type,client,tx,amount\nwithdrawal,1,1\n", ErrMissingField},
		{"client out of range", "type,client,tx,amount\ndeposit,65536,1,1\n", ErrMalformedRow},
		{"negative client", "type,client,tx,amount\ndeposit,-1,1,1\n", ErrMalformedRow},
		{"tx out of range", "type,client,tx,amount\ndeposit,1,4294967296,1\n", ErrMalformedRow},
		{"missing tx", "type,client,tx,amount\ndeposit,1,,1\n", ErrMissingField},
		{"amount not a number", "type,client,tx,amount\ndeposit,1,1,abc\n", ErrMalformedRow},
		{"exponent notation", "type,client,tx,amount\ndeposit,1,1,1e2000000000\n", ErrMalformedRow},
		{"smallest exponent", "type,client,tx,amount\ndeposit,1,1,1e-2147483648\n", ErrMalformedRow},
		{"exponent with fraction", "type,client,tx,amount\nwithdrawal,1,1,0.1e-2147483647\n", ErrMalformedRow},
		{"too many digits", "type,client,tx,amount\ndeposit,1,1,12345678901234567890.123456789\n", ErrMalformedRow},
		{"bare dot", "type,client,tx,amount\ndeposit,1,1,1.\n", ErrMalformedRow},
		{"too many fields", "type,client,tx,amount\ndeposit,1,1,1,2\n", ErrMalformedRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readAll(t, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReaderReportsLine(t *testing.T) {
	_, err := readAll(t, "type,client,tx,amount\ndeposit,1,1,1\nbogus,1,2,1\n")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReaderPlainAmounts(t *testing.T) {
	txs, err := readAll(t, `type,client,tx,amount
deposit,1,1,+2.5
deposit,1,2,-3
deposit,1,3,000000000000000000000000000001.0000
withdrawal,1,4,1234567890123456789012345678
`)
	require.NoError(t, err)
	require.Len(t, txs, 4)

	want := []string{"2.5", "-3", "1", "1234567890123456789012345678"}
	for i, w := range want {
		amount, ok := txs[i].Amount()
		require.True(t, ok)
		assert.True(t, decimal.RequireFromString(w).Equal(amount), "row %d: got %s", i, amount)
	}

	// a negative amount decodes fine and is left for validation to skip
	assert.ErrorIs(t, txs[1].Validate(), models.ErrNegativeAmount)
}

func TestReaderColumnOrderFollowsHeader(t *testing.T) {
	txs, err := readAll(t, "client,type,amount,tx\n7,withdrawal,2.5,9\n")
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, models.Withdrawal, txs[0].Kind)
	assert.Equal(t, models.ClientID(7), txs[0].Client)
	assert.Equal(t, models.TxID(9), txs[0].Tx)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer

	err := NewWriter(&buf).Write([]models.Account{
		{Client: 1, Available: decimal.RequireFromString("1.5"), Held: decimal.Zero, Total: decimal.RequireFromString("1.5")},
		{Client: 2, Available: decimal.NewFromInt(2), Held: decimal.Zero, Total: decimal.NewFromInt(2), Locked: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "client,available,held,total,locked\n1,1.5,0,1.5,false\n2,2,0,2,true\n", buf.String())
}

func TestWriterEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewWriter(&buf).Write(nil))
	assert.Equal(t, "client,available,held,total,locked\n", buf.String())
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]decimal.Decimal{
		"0":         decimal.Zero,
		"0.5000":    decimal.RequireFromString("0.5000"),
		"1.5111":    decimal.RequireFromString("1.0111").Add(decimal.RequireFromString("0.5")),
		"-5":        decimal.NewFromInt(5).Sub(decimal.NewFromInt(10)),
		"100000000": decimal.RequireFromString("1e8"),
		"0.0001":    decimal.RequireFromString("1e-4"),
	}

	for want, d := range tests {
		assert.Equal(t, want, FormatAmount(d))
	}
}
