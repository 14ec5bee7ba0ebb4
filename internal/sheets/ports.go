// Package sheets defines the outbound ports of the spreadsheet mirror and
// the row layout shared by its adapters.
package sheets

import (
	"context"

	"tally/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionMirror appends one transaction as a spreadsheet row.
	TransactionMirror interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// MirrorIndex reports whether a transaction id was already mirrored.
	MirrorIndex interface {
		Contains(ctx context.Context, id string) (bool, error)
	}
)

// Header is the first row of a mirror sheet.
var Header = []string{"ID", "Date", "Type", "Category", "Description", "Location", "Amount"}

// Row lays out tx in Header order. The amount carries the same sign the
// list screen shows.
func Row(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.Date,
		string(tx.Type),
		string(tx.Category),
		tx.Description,
		tx.Location,
		core.AmountPrefix(tx.Type) + tx.Amount,
	}
}
