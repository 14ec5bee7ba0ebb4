package screens

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/repository"
	"tally/internal/transfer"
)

// ErrUnknownTransaction is returned by Select for ids not in the list.
var ErrUnknownTransaction = errors.New("transaction not in list")

// Opener builds and loads a fresh repository. services.TransactionService
// implements it.
type Opener interface {
	Open(ctx context.Context) (*repository.Repository, error)
}

// Dashboard lists transactions with the running balance.
type Dashboard struct {
	opener Opener
	logger *applog.Logger

	mu        sync.Mutex
	items     []core.Transaction
	loaded    bool
	justAdded *core.Transaction
}

func NewDashboard(opener Opener, logger *applog.Logger) *Dashboard {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Dashboard{opener: opener, logger: logger.WithComponent(applog.ComponentScreens)}
}

// Activate reloads the list from the store. It must run every time the
// dashboard becomes visible so writes made by other screens show up.
//
// A failed read keeps whatever the dashboard showed before. The error is
// returned for telemetry only.
func (d *Dashboard) Activate(ctx context.Context) error {
	repo, err := d.opener.Open(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	list := repo.Transactions()
	if err != nil {
		d.logger.WarnContext(ctx, "Dashboard kept previous list after load failure",
			applog.FieldScreen, RouteDashboard,
			applog.FieldError, err.Error())
		if d.loaded && len(list) == 0 {
			return err
		}
	}
	d.items = list
	d.loaded = true
	return err
}

// Arrive consumes the route parameters the dashboard was navigated to with.
// A newTransaction parameter is decoded and exposed as JustAdded.
func (d *Dashboard) Arrive(params url.Values) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.justAdded = nil
	raw := params.Get(transfer.ParamNewTransaction)
	if raw == "" {
		return nil
	}
	tx, err := transfer.Decode(raw)
	if err != nil {
		return err
	}
	d.justAdded = &tx
	return nil
}

// Row is one list entry as displayed.
type Row struct {
	ID          string
	Description string
	Category    string
	Date        string
	Amount      string
	Tone        string
	Type        string
	Route       Route
}

// DashboardView is everything the dashboard renders.
type DashboardView struct {
	Title     string
	Balance   string
	Count     string
	Rows      []Row
	Empty     bool
	JustAdded *core.Transaction
}

func (d *Dashboard) View() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	summary := core.ComputeSummary(d.items)
	view := DashboardView{
		Title:     Title(RouteDashboard),
		Balance:   summary.BalanceText(),
		Count:     summary.CountText(),
		Rows:      make([]Row, 0, len(d.items)),
		Empty:     len(d.items) == 0,
		JustAdded: d.justAdded,
	}
	for _, tx := range d.items {
		view.Rows = append(view.Rows, Row{
			ID:          tx.ID,
			Description: tx.Description,
			Category:    string(tx.Category),
			Date:        tx.Date,
			Amount:      DisplayAmount(tx),
			Tone:        core.AmountTone(tx.Type),
			Type:        string(tx.Type),
			Route:       detailRoute(tx),
		})
	}
	return view
}

// Transactions returns the list currently shown.
func (d *Dashboard) Transactions() []core.Transaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]core.Transaction(nil), d.items...)
}

// Select returns the detail route for the transaction with id.
func (d *Dashboard) Select(id string) (Route, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, tx := range d.items {
		if tx.ID == id {
			return detailRoute(tx), nil
		}
	}
	return Route{}, fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
}

// AddRoute is where the "+ Add New Transaction" button leads.
func (d *Dashboard) AddRoute() Route {
	return NewRoute(RouteAdd)
}

func detailRoute(tx core.Transaction) Route {
	return NewRoute(RouteDetail, transfer.ParamTransaction, transfer.MustEncode(tx))
}

// DisplayAmount renders a stored amount with its sign, e.g. "-$150.00".
func DisplayAmount(tx core.Transaction) string {
	return core.AmountPrefix(tx.Type) + "$" + tx.Amount
}
