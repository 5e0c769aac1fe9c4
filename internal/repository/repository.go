// Package repository stores entity collections as JSON documents in a
// key-value store, one document per collection.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/kv"
)

// Collection keys.
const (
	CollectionAccounts    = "accounts"
	CollectionCreditCards = "credit-cards"
	CollectionBudgets     = "budgets"
	CollectionExpenses    = "expenses"
	CollectionIncomes     = "incomes"
	KeyProfile            = "profile_data"
)

// Collections lists every entity collection key in dependency order.
var Collections = []string{
	CollectionAccounts,
	CollectionCreditCards,
	CollectionBudgets,
	CollectionExpenses,
	CollectionIncomes,
}

// Repository provides list/create/update/delete over one collection.
type Repository[T any] struct {
	store      kv.Store
	collection string
	prefix     string
	idOf       func(*T) *string
	newID      func() string
}

func newRepository[T any](store kv.Store, collection, prefix string, idOf func(*T) *string) *Repository[T] {
	return &Repository[T]{
		store:      store,
		collection: collection,
		prefix:     prefix,
		idOf:       idOf,
		newID:      uuid.NewString,
	}
}

// WithIDGenerator replaces the random part of generated ids.
func (r *Repository[T]) WithIDGenerator(gen func() string) *Repository[T] {
	r.newID = gen
	return r
}

// Collection returns the collection key.
func (r *Repository[T]) Collection() string { return r.collection }

// List returns the whole collection in stored order; an absent document is empty.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	set, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return set.items, nil
}

// Get returns the entity with id.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	set, err := r.load(ctx)
	if err != nil {
		return zero, err
	}
	i, ok := set.index[id]
	if !ok {
		return zero, core.NewNotFoundError(r.collection, id)
	}
	return set.items[i], nil
}

// Create assigns a fresh id to entity, appends it and persists the collection.
func (r *Repository[T]) Create(ctx context.Context, entity T) (T, error) {
	set, err := r.load(ctx)
	if err != nil {
		return entity, err
	}
	id := r.prefix + "-" + r.newID()
	*r.idOf(&entity) = id
	set.put(id, entity)
	if err := r.save(ctx, set.items); err != nil {
		return entity, err
	}
	return entity, nil
}

// Update replaces the stored entity with the same id.
func (r *Repository[T]) Update(ctx context.Context, entity T) error {
	id := *r.idOf(&entity)
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := set.index[id]; !ok {
		return core.NewNotFoundError(r.collection, id)
	}
	set.put(id, entity)
	return r.save(ctx, set.items)
}

// Delete removes the entity with id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	if !set.remove(id) {
		return core.NewNotFoundError(r.collection, id)
	}
	return r.save(ctx, set.items)
}

// SaveAll overwrites the collection.
func (r *Repository[T]) SaveAll(ctx context.Context, entities []T) error {
	if entities == nil {
		entities = []T{}
	}
	return r.save(ctx, entities)
}

func (r *Repository[T]) load(ctx context.Context) (*entitySet[T], error) {
	var items []T
	if _, err := kv.GetJSON(ctx, r.store, r.collection, &items); err != nil {
		return nil, fmt.Errorf("load %s: %w", r.collection, err)
	}
	return newEntitySet(items, r.idOf), nil
}

func (r *Repository[T]) save(ctx context.Context, items []T) error {
	if err := kv.SetJSON(ctx, r.store, r.collection, items); err != nil {
		return fmt.Errorf("save %s: %w", r.collection, err)
	}
	return nil
}

// entitySet keeps insertion order with an id index.
type entitySet[T any] struct {
	items []T
	index map[string]int
	idOf  func(*T) *string
}

func newEntitySet[T any](items []T, idOf func(*T) *string) *entitySet[T] {
	s := &entitySet[T]{
		items: make([]T, 0, len(items)),
		index: make(map[string]int, len(items)),
		idOf:  idOf,
	}
	for _, it := range items {
		s.put(*idOf(&it), it)
	}
	return s
}

func (s *entitySet[T]) put(id string, entity T) {
	if i, ok := s.index[id]; ok {
		s.items[i] = entity
		return
	}
	s.index[id] = len(s.items)
	s.items = append(s.items, entity)
}

func (s *entitySet[T]) remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[*s.idOf(&s.items[j])] = j
	}
	return true
}
