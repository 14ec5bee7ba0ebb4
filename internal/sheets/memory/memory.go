package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
	ports "tally/internal/sheets"
)

// Mirror keeps mirrored rows in memory.
type Mirror struct {
	mu   sync.Mutex
	rows [][]any
	ids  map[string]int
	err  error
}

var (
	_ ports.TransactionMirror = (*Mirror)(nil)
	_ ports.MirrorIndex       = (*Mirror)(nil)
)

func New() *Mirror {
	return &Mirror{ids: map[string]int{}}
}

// Append stores the row and returns a synthetic row reference.
func (m *Mirror) Append(_ context.Context, tx core.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.rows = append(m.rows, ports.Row(tx))
	m.ids[tx.ID] = len(m.rows)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) Contains(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.ids[id]
	return ok, nil
}

// Rows returns a copy of the appended rows in order.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.rows))
	copy(out, m.rows)
	return out
}

// Fail makes subsequent calls return err (nil restores normal behavior).
func (m *Mirror) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
