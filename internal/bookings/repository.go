package bookings

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for the confirmation archive
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	GetByReference(ctx context.Context, reference string) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]*Record, error)
}

// InMemoryRepository keeps confirmations in process memory
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]*Record),
	}
}

// Save stores the record, assigning an id and creation time when absent.
func (r *InMemoryRepository) Save(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	key := strings.ToUpper(rec.Reference)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[key]; exists {
		return ErrDuplicateReference
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	stored := *rec
	r.records[key] = &stored
	return nil
}

// GetByReference retrieves a confirmation by its booking reference
func (r *InMemoryRepository) GetByReference(ctx context.Context, reference string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[strings.ToUpper(strings.TrimSpace(reference))]
	if !ok {
		return nil, ErrBookingNotFound
	}
	out := *rec
	return &out, nil
}

// List returns confirmations newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	filter = filter.normalized()

	r.mu.RLock()
	all := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		out := *rec
		all = append(all, &out)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Reference < all[j].Reference
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if filter.Offset >= len(all) {
		return []*Record{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}
