package store

import (
	"context"
	"fmt"
	"sync"
)

// MemTable is an in-memory Table used by tests and local development. The
// ErrHook field lets tests script per-call store failures.
type MemTable struct {
	mu   sync.Mutex
	seq  int
	ids  []string
	rows map[string]Row

	// ErrHook, when set, is consulted before every call. Returning a non-nil
	// error makes the call fail without touching the data.
	ErrHook func(op string, id string) error
}

func NewMemTable() *MemTable {
	return &MemTable{rows: make(map[string]Row)}
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (t *MemTable) hook(op, id string) error {
	if t.ErrHook != nil {
		return t.ErrHook(op, id)
	}
	return nil
}

func matches(row Row, c Cond) bool {
	v, ok := row[c.Column]
	if !ok {
		return false
	}
	for _, want := range c.Values {
		if fmt.Sprint(v) == fmt.Sprint(want) {
			return true
		}
	}
	return false
}

func (t *MemTable) Select(ctx context.Context, q Query) ([]Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.hook("select", ""); err != nil {
		return nil, err
	}

	var out []Row
	for _, id := range t.ids {
		row, ok := t.rows[id]
		if !ok {
			continue
		}
		keep := true
		for _, c := range q.Match {
			if !matches(row, c) {
				keep = false
				break
			}
		}
		if keep && len(q.Any) > 0 {
			keep = false
			for _, c := range q.Any {
				if matches(row, c) {
					keep = true
					break
				}
			}
		}
		if keep {
			out = append(out, copyRow(row))
		}
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (t *MemTable) Get(ctx context.Context, id string) (Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.hook("get", id); err != nil {
		return nil, err
	}
	row, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("no row found with id %s", id)
	}
	return copyRow(row), nil
}

func (t *MemTable) Insert(ctx context.Context, row Row) (Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.hook("insert", ""); err != nil {
		return nil, err
	}
	stored := copyRow(row)
	id, ok := stored["id"].(string)
	if !ok || id == "" {
		t.seq++
		id = fmt.Sprintf("mem-%d", t.seq)
		stored["id"] = id
	}
	t.rows[id] = stored
	t.ids = append(t.ids, id)
	return copyRow(stored), nil
}

func (t *MemTable) Update(ctx context.Context, id string, values Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.hook("update", id); err != nil {
		return err
	}
	row, ok := t.rows[id]
	if !ok {
		return fmt.Errorf("no row found with id %s", id)
	}
	for k, v := range values {
		if v == nil {
			delete(row, k)
			continue
		}
		row[k] = v
	}
	return nil
}

func (t *MemTable) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.hook("delete", id); err != nil {
		return err
	}
	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("no row found with id %s", id)
	}
	delete(t.rows, id)
	return nil
}

// Len reports the number of stored rows.
func (t *MemTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// All returns a copy of every stored row in insertion order.
func (t *MemTable) All() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Row
	for _, id := range t.ids {
		if row, ok := t.rows[id]; ok {
			out = append(out, copyRow(row))
		}
	}
	return out
}
