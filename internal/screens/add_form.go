package screens

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/transfer"
)

// Form field names, as posted by the HTML form.
const (
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldDescription = "description"
	FieldLocation    = "location"
	FieldType        = "type"
	FieldCategory    = "category"
)

// Alert messages shown by the add form.
const (
	MsgSaved      = "Transaction added successfully!"
	MsgSaveFailed = "Failed to save transaction"
)

var (
	// ErrUnknownField is returned by Set for names outside the form.
	ErrUnknownField = errors.New("unknown form field")
	// ErrSaveFailed wraps store write failures surfaced by Submit.
	ErrSaveFailed = errors.New(MsgSaveFailed)
)

// Creator persists a validated draft. services.TransactionService implements it.
type Creator interface {
	Create(ctx context.Context, draft core.Draft) (core.Transaction, error)
}

// AddForm collects a draft and submits it.
type AddForm struct {
	creator  Creator
	notifier Notifier
	logger   *applog.Logger

	mu    sync.Mutex
	draft core.Draft
}

func NewAddForm(creator Creator, notifier Notifier, logger *applog.Logger) *AddForm {
	if logger == nil {
		logger = applog.Discard()
	}
	return &AddForm{
		creator:  creator,
		notifier: notifier,
		logger:   logger.WithComponent(applog.ComponentScreens),
	}
}

// Set updates one field. All fields start empty.
func (f *AddForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case FieldDate:
		f.draft.Date = value
	case FieldAmount:
		f.draft.Amount = value
	case FieldDescription:
		f.draft.Description = value
	case FieldLocation:
		f.draft.Location = value
	case FieldType:
		f.draft.Type = value
	case FieldCategory:
		f.draft.Category = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Draft returns the values entered so far.
func (f *AddForm) Draft() core.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Types returns the selectable transaction types in display order.
func (f *AddForm) Types() []core.TransactionType {
	return core.TransactionTypes()
}

// Categories returns the selectable categories in display order.
func (f *AddForm) Categories() []core.Category {
	return core.Categories()
}

func (f *AddForm) Title() string {
	return Title(RouteAdd)
}

// Submit validates and saves the draft. Every outcome produces exactly one
// alert. On success it returns the dashboard route carrying the new
// transaction; on failure the form stays where it is and the error is
// returned.
func (f *AddForm) Submit(ctx context.Context) (Route, error) {
	draft := f.Draft()

	if err := draft.Validate(); err != nil {
		f.notify(AlertError, err.Error())
		return Route{}, err
	}

	tx, err := f.creator.Create(ctx, draft)
	if err != nil {
		if errors.Is(err, core.ErrMissingFields) || errors.Is(err, core.ErrInvalidAmount) {
			f.notify(AlertError, err.Error())
			return Route{}, err
		}
		f.logger.ErrorContext(ctx, "Error saving transaction",
			applog.NewFields().
				WithError(err).
				WithErrorType(applog.ErrorTypeStoreWrite).
				WithOperation(applog.OpAppend).
				ToSlice()...)
		f.notify(AlertError, MsgSaveFailed)
		return Route{}, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	f.notify(AlertSuccess, MsgSaved)
	return NewRoute(RouteDashboard, transfer.ParamNewTransaction, transfer.MustEncode(tx)), nil
}

func (f *AddForm) notify(title, message string) {
	if f.notifier != nil {
		f.notifier.Alert(title, message)
	}
}
