package screens

import (
	"errors"
	"net/url"

	"tally/internal/core"
	"tally/internal/transfer"
)

// ErrMissingTransaction is returned when the detail screen is reached
// without a transaction parameter.
var ErrMissingTransaction = errors.New("missing transaction parameter")

// Detail shows one transaction passed by value in the route.
type Detail struct {
	tx core.Transaction
}

// DetailRow is one labelled value.
type DetailRow struct {
	Label string
	Value string
}

// DetailView is everything the detail screen renders.
type DetailView struct {
	Title  string
	Amount string
	Tone   string
	Type   string
	Rows   []DetailRow
}

// NewDetail decodes the transaction parameter of a detail route.
func NewDetail(params url.Values) (*Detail, error) {
	raw := params.Get(transfer.ParamTransaction)
	if raw == "" {
		return nil, ErrMissingTransaction
	}
	tx, err := transfer.Decode(raw)
	if err != nil {
		return nil, err
	}
	return &Detail{tx: tx}, nil
}

func (d *Detail) Transaction() core.Transaction {
	return d.tx
}

func (d *Detail) View() DetailView {
	return DetailView{
		Title:  Title(RouteDetail),
		Amount: DisplayAmount(d.tx),
		Tone:   core.AmountTone(d.tx.Type),
		Type:   string(d.tx.Type),
		Rows: []DetailRow{
			{Label: "Description", Value: d.tx.Description},
			{Label: "Category", Value: string(d.tx.Category)},
			{Label: "Date", Value: d.tx.Date},
			{Label: "Location", Value: d.tx.Location},
			{Label: "Transaction Type", Value: string(d.tx.Type)},
		},
	}
}
