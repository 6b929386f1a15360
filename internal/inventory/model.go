// Package inventory holds the client-side view of one paginated inventory
// query: the accumulated items, the cursor to resume from, the search term
// and the load status. Mutations go through the store and refresh the view.
//
// Pages accumulate in memory until the next reset. Nothing evicts them, so
// memory grows with the number of pages the caller loads.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// View-model errors.
var (
	ErrLoadInProgress = errors.New("a page load is already in progress")
	ErrItemNotFound   = errors.New("item not found")
)

// Store is the part of the store client the model drives.
type Store interface {
	FetchPage(ctx context.Context, userID string, pageSize int, cursor *types.Cursor, search string) (types.Page, error)
	Upsert(ctx context.Context, userID string, u types.ItemUpdate) (types.Item, error)
	Remove(ctx context.Context, userID, itemID string) error
}

// Model is the inventory view-model. It is safe for concurrent use; the
// lock is never held across store calls.
type Model struct {
	store    Store
	userID   string
	pageSize int
	logger   *slog.Logger

	mu      sync.Mutex
	items   []types.Item
	cursor  *types.Cursor
	search  string
	hasMore bool
	status  Status
	err     error
	message string

	// gen identifies the current query. Completions captured under an
	// older generation are discarded.
	gen     uint64
	loading bool
}

// Option configures a Model.
type Option func(*Model)

// WithPageSize sets the number of items requested per page. Sizes above
// types.MaxPageSize are clamped to it, since stores never return more and a
// full page must not be mistaken for the last one.
func WithPageSize(n int) Option {
	return func(m *Model) {
		switch {
		case n > types.MaxPageSize:
			m.pageSize = types.MaxPageSize
		case n > 0:
			m.pageSize = n
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates an empty model for the user's collection.
func New(store Store, userID string, opts ...Option) *Model {
	m := &Model{
		store:    store,
		userID:   userID,
		pageSize: types.DefaultPageSize,
		logger:   slog.Default(),
		hasMore:  true,
		status:   StatusEmpty,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadNextPage fetches the page after the current cursor and appends it.
// A page shorter than the page size ends the query; the cursor is kept when
// the page is empty.
func (m *Model) LoadNextPage(ctx context.Context) error {
	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return ErrLoadInProgress
	}
	gen, cursor, search, pageSize := m.gen, m.cursor, m.search, m.pageSize
	m.loading = true
	m.status = StatusLoading
	m.mu.Unlock()

	page, err := m.store.FetchPage(ctx, m.userID, pageSize, cursor, search)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		m.logger.Debug("discarding stale page", "generation", gen, "current", m.gen)
		return nil
	}
	m.loading = false

	if err != nil {
		m.failLocked(opFetch, err)
		return err
	}

	m.items = append(m.items, page.Items...)
	if page.Next != nil {
		m.cursor = page.Next
	}
	m.hasMore = len(page.Items) == pageSize
	m.status = StatusLoaded
	m.clearErrorLocked()
	return nil
}

// ResetAndReload discards the list and cursor, sets the search term and
// loads the first page of the new query.
func (m *Model) ResetAndReload(ctx context.Context, term string) error {
	m.mu.Lock()
	m.gen++
	m.items = nil
	m.cursor = nil
	m.search = strings.TrimSpace(term)
	m.hasMore = true
	m.loading = false
	m.mu.Unlock()

	return m.LoadNextPage(ctx)
}

// Reload reloads the first page of the current query.
func (m *Model) Reload(ctx context.Context) error {
	return m.ResetAndReload(ctx, m.Search())
}

// LoadAll loads pages until the query is exhausted.
func (m *Model) LoadAll(ctx context.Context) error {
	for m.HasMore() {
		if err := m.LoadNextPage(ctx); err != nil {
			return err
		}
	}
	return nil
}

// AddItem creates an item, or merges into the item whose name derives the
// same ID, then reloads the current query.
func (m *Model) AddItem(ctx context.Context, name, category string, quantity int) (types.Item, error) {
	name = strings.TrimSpace(name)
	u := types.ItemUpdate{Name: &name, Category: &category, Quantity: &quantity}
	if err := validateNew(u); err != nil {
		m.reject(err)
		return types.Item{}, err
	}

	item, err := m.store.Upsert(ctx, m.userID, u)
	if err != nil {
		m.fail(opAdd, err)
		return types.Item{}, err
	}
	m.logger.Info("item added", "itemID", item.ItemID)
	return item, m.Reload(ctx)
}

// EditItem stores the full edited record under its existing ID and reloads
// the current query.
func (m *Model) EditItem(ctx context.Context, item types.Item) (types.Item, error) {
	if item.ItemID == "" {
		m.reject(types.ErrInvalidID)
		return types.Item{}, types.ErrInvalidID
	}
	u := item.Update()
	if err := validateNew(u); err != nil {
		m.reject(err)
		return types.Item{}, err
	}

	stored, err := m.store.Upsert(ctx, m.userID, u)
	if err != nil {
		m.fail(opEdit, err)
		return types.Item{}, err
	}
	m.logger.Info("item updated", "itemID", stored.ItemID)
	return stored, m.Reload(ctx)
}

// RemoveItem deletes an item in the store and, once the store confirms,
// drops it from the local list without reloading.
func (m *Model) RemoveItem(ctx context.Context, itemID string) error {
	if itemID == "" {
		m.reject(types.ErrInvalidID)
		return types.ErrInvalidID
	}
	if err := m.store.Remove(ctx, m.userID, itemID); err != nil {
		m.fail(opRemove, err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	for _, it := range m.items {
		if it.ItemID != itemID {
			kept = append(kept, it)
		}
	}
	m.items = kept
	m.clearErrorLocked()
	m.logger.Info("item removed", "itemID", itemID)
	return nil
}

// ImportItems validates every update, upserts them in order and reloads
// once. It stops at the first store failure, without reloading, and returns
// the number of items stored.
func (m *Model) ImportItems(ctx context.Context, updates []types.ItemUpdate) (int, error) {
	for _, u := range updates {
		if err := validateNew(u); err != nil {
			m.reject(err)
			return 0, err
		}
	}

	n := 0
	for _, u := range updates {
		if _, err := m.store.Upsert(ctx, m.userID, u); err != nil {
			m.fail(opImport, err)
			return n, err
		}
		n++
	}
	m.logger.Info("items imported", "count", n)
	if n == 0 {
		return 0, nil
	}
	return n, m.Reload(ctx)
}

// validateNew checks that an update carries every field of a new record.
func validateNew(u types.ItemUpdate) error {
	if u.Name == nil || strings.TrimSpace(*u.Name) == "" {
		return types.ErrInvalidName
	}
	if u.Category == nil || *u.Category == "" {
		return types.ErrInvalidCategory
	}
	if u.Quantity == nil {
		return types.ErrInvalidQuantity
	}
	return u.Validate()
}

// Items returns a copy of the loaded items in display order.
func (m *Model) Items() []types.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Item, len(m.items))
	copy(out, m.items)
	return out
}

// Find returns the loaded item with the given ID.
func (m *Model) Find(itemID string) (types.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ItemID == itemID {
			return it, nil
		}
	}
	return types.Item{}, ErrItemNotFound
}

// Cursor returns the cursor the next LoadNextPage resumes after, or nil.
func (m *Model) Cursor() *types.Cursor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor == nil {
		return nil
	}
	c := *m.cursor
	return &c
}

// HasMore reports whether another page may exist.
func (m *Model) HasMore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasMore
}

// Search returns the current search term.
func (m *Model) Search() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.search
}

// Status returns the load status.
func (m *Model) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the error of the last failed operation, or nil.
func (m *Model) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Message returns the user-visible message of the last failed operation.
func (m *Model) Message() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.message
}

// fail records a store failure and moves the model to StatusError.
func (m *Model) fail(o op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLocked(o, err)
}

func (m *Model) failLocked(o op, err error) {
	m.status = StatusError
	m.err = err
	m.message = messageFor(o, err)
	m.logger.Warn("inventory operation failed", "op", o.String(), "error", err)
}

// reject records a validation failure. The list and status are unchanged.
func (m *Model) reject(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	m.message = messageFor(opValidate, err)
}

func (m *Model) clearErrorLocked() {
	m.err = nil
	m.message = ""
}
