package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a thread-safe Fake for testing.
// It enforces the same unique-link rule as the real table.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Listing

	// Now is the clock used for created_at/updated_at. Tests may replace it.
	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string]Listing),
		Now:  func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) List(ctx context.Context) ([]Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Listing, 0, len(m.rows))
	for _, l := range m.rows {
		out = append(out, l)
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) ListByStatus(ctx context.Context, status Status) ([]Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Listing, 0)
	for _, l := range m.rows {
		if l.Status == status {
			out = append(out, l)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.rows[id]
	if !ok {
		return Listing{}, ErrNotFound
	}
	return l, nil
}

func (m *MemoryStore) Create(ctx context.Context, nl NewListing) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.linkTaken(nl.Link, "") {
		return Listing{}, ErrDuplicate
	}

	now := m.Now()
	l := Listing{
		ID:        uuid.NewString(),
		Link:      nl.Link,
		Product:   nl.Product,
		Status:    nl.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.rows[l.ID] = l
	return l, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, patch ListingPatch) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.rows[id]
	if !ok {
		return Listing{}, ErrNotFound
	}

	if patch.Link != nil {
		if m.linkTaken(*patch.Link, id) {
			return Listing{}, ErrDuplicate
		}
		l.Link = *patch.Link
	}
	if patch.Status != nil {
		l.Status = *patch.Status
	}
	l.UpdatedAt = patch.UpdatedAt

	m.rows[id] = l
	return l, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rows, id)
	return nil
}

func (m *MemoryStore) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, l := range m.rows {
		if !l.CreatedAt.Before(from) && l.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// linkTaken reports whether another row (not exceptID) already holds link.
func (m *MemoryStore) linkTaken(link, exceptID string) bool {
	for id, l := range m.rows {
		if id != exceptID && l.Link == link {
			return true
		}
	}
	return false
}

func sortNewestFirst(ls []Listing) {
	sort.SliceStable(ls, func(i, j int) bool {
		return ls[i].CreatedAt.After(ls[j].CreatedAt)
	})
}
