package core

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Summary is the dashboard header: balance and number of transactions.
type Summary struct {
	Total decimal.Decimal
	Count int
}

// ComputeSummary adds Credit and Refund amounts, subtracts Debit amounts and
// ignores any other type. Stored amounts that do not parse, or fall outside
// the float64 range, contribute nothing.
func ComputeSummary(list []Transaction) Summary {
	total := decimal.Zero
	for _, tx := range list {
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil || !inFloatRange(amount) {
			continue
		}
		switch tx.Type {
		case Credit, Refund:
			total = total.Add(amount)
		case Debit:
			total = total.Sub(amount)
		}
	}
	return Summary{Total: total, Count: len(list)}
}

// Balance is the display form of the total, rounded to two places.
func (s Summary) Balance() string {
	return FormatCurrency(s.Total)
}

// BalanceText is the full dashboard balance line.
func (s Summary) BalanceText() string {
	return "Total Balance: " + s.Balance()
}

// CountText is the full dashboard count line.
func (s Summary) CountText() string {
	return "Total Transactions: " + strconv.Itoa(s.Count)
}
