package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action identifies the mutation reported to the outbound notifier.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Notifier receives product mutations for outbound business-event logging.
// Implementations must be best-effort: the store ignores their outcome.
type Notifier interface {
	NotifyProductAction(ctx context.Context, action Action, product Product, previous *Product)
}

// Store is an in-memory product collection. It exclusively owns the records;
// callers always receive copies, never live references.
type Store struct {
	mu       sync.RWMutex
	products map[string]*Product
	order    []string

	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithNotifier attaches an outbound notifier invoked after every mutation.
func WithNotifier(n Notifier) StoreOption {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		products: make(map[string]*Product),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a product with a fresh id, a status derived from the supplied
// stock, and both timestamps set to now. The outbound notification is
// fire-and-forget: its failure never rolls back the creation.
func (s *Store) Create(ctx context.Context, fields Fields) Product {
	s.mu.Lock()
	now := s.now()
	p := &Product{
		ID:          uuid.New().String(),
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		Stock:       fields.Stock,
		Status:      DeriveStatus(fields.Stock),
		Category:    fields.Category,
		ImageURL:    fields.ImageURL,
		CreatedAt:   now,
		LastUpdated: now,
	}
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
	created := *p
	s.mu.Unlock()

	s.notify(ctx, ActionCreated, created, nil)
	return created
}

// Get returns a copy of the product, and whether it exists.
func (s *Store) Get(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

// Update merges the patch into an existing product. An absent id is an
// expected outcome and reports (zero, false) rather than an error. Status is
// recomputed only when the patch carries Stock; CreatedAt is preserved and
// LastUpdated refreshed.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (Product, bool) {
	s.mu.Lock()
	p, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		return Product{}, false
	}
	previous := *p

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
		p.Status = DeriveStatus(p.Stock)
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	p.LastUpdated = s.now()

	updated := *p
	s.mu.Unlock()

	s.notify(ctx, ActionUpdated, updated, &previous)
	return updated, true
}

// Delete removes the product if present and reports whether removal occurred.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	p, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	removed := *p
	delete(s.products, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.notify(ctx, ActionDeleted, removed, nil)
	return true
}

// List returns copies of all products in insertion order.
func (s *Store) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(nil)
}

// Search matches the query case-insensitively as a substring of name,
// description, or category. A blank query returns the full collection.
func (s *Store) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	if q == "" {
		return s.snapshot(nil)
	}
	return s.snapshot(func(p *Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	})
}

// FilterByStatus returns products with the given derived status.
func (s *Store) FilterByStatus(status Status) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(func(p *Product) bool { return p.Status == status })
}

// ListLowStock returns products with stock at or below the low-stock
// threshold, including out-of-stock products.
func (s *Store) ListLowStock() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(func(p *Product) bool { return p.Stock <= lowStockThreshold })
}

// Stats returns per-status counts and the total inventory value.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	for _, p := range s.products {
		st.Total++
		switch p.Status {
		case StatusActive:
			st.Active++
		case StatusLowStock:
			st.LowStock++
		case StatusInactive:
			st.Inactive++
		}
		st.TotalValue += p.Price * float64(p.Stock)
	}
	return st
}

// snapshot copies products in insertion order, filtered by keep when non-nil.
// Callers must hold at least the read lock.
func (s *Store) snapshot(keep func(*Product) bool) []Product {
	result := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		p := s.products[id]
		if keep == nil || keep(p) {
			result = append(result, *p)
		}
	}
	return result
}

// notify spawns the fire-and-forget outbound notification. The mutation is
// already committed when this runs; the outcome is observable only in logs.
func (s *Store) notify(ctx context.Context, action Action, product Product, previous *Product) {
	if s.notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warn("product notification panicked",
					slog.String("action", string(action)),
					slog.Any("panic", r),
				)
			}
		}()
		s.notifier.NotifyProductAction(context.WithoutCancel(ctx), action, product, previous)
	}()
}

// Seed inserts demo products without firing notifications, for development
// and tests.
func (s *Store) Seed(products []Fields) []Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := make([]Product, 0, len(products))
	now := s.now()
	for _, f := range products {
		p := &Product{
			ID:          uuid.New().String(),
			Name:        f.Name,
			Description: f.Description,
			Price:       f.Price,
			Stock:       f.Stock,
			Status:      DeriveStatus(f.Stock),
			Category:    f.Category,
			ImageURL:    f.ImageURL,
			CreatedAt:   now,
			LastUpdated: now,
		}
		s.products[p.ID] = p
		s.order = append(s.order, p.ID)
		seeded = append(seeded, *p)
	}
	return seeded
}
