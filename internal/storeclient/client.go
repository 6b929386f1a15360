// Package storeclient issues paginated reads and single-document writes
// against a user's collection. Every call is preceded by a connectivity
// check; failures are mapped onto the pantry error sentinels.
package storeclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/pantry/internal/netcheck"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Client wraps a Backend with the connectivity pre-check and error mapping.
type Client struct {
	backend types.Backend
	checker netcheck.Checker
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every store call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client over backend. A nil checker always reports online.
func New(backend types.Backend, checker netcheck.Checker, opts ...Option) *Client {
	if checker == nil {
		checker = netcheck.Always{}
	}
	c := &Client{backend: backend, checker: checker, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage returns up to pageSize items of the user's collection whose
// names start with search, ordered by name and resuming after cursor.
func (c *Client) FetchPage(ctx context.Context, userID string, pageSize int, cursor *types.Cursor, search string) (types.Page, error) {
	q := types.PageQuery{Prefix: search, Limit: pageSize, After: cursor}

	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return types.Page{}, err
	}
	defer cancel()

	page, err := c.backend.FetchPage(ctx, userID, q)
	if err != nil {
		return types.Page{}, c.mapError("fetch page", err, "userID", userID, "search", search)
	}
	c.logger.Debug("fetched page", "userID", userID, "count", len(page.Items), "search", search)
	return page, nil
}

// Upsert creates or merges an item and returns the stored record.
func (c *Client) Upsert(ctx context.Context, userID string, u types.ItemUpdate) (types.Item, error) {
	if err := u.Validate(); err != nil {
		return types.Item{}, err
	}

	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return types.Item{}, err
	}
	defer cancel()

	item, err := c.backend.Upsert(ctx, userID, u)
	if err != nil {
		return types.Item{}, c.mapError("upsert item", err, "userID", userID, "itemID", u.ID())
	}
	c.logger.Debug("upserted item", "userID", userID, "itemID", item.ItemID)
	return item, nil
}

// Remove deletes an item. Removing an absent item succeeds.
func (c *Client) Remove(ctx context.Context, userID, itemID string) error {
	if itemID == "" {
		return types.ErrInvalidID
	}

	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := c.backend.Remove(ctx, userID, itemID); err != nil {
		return c.mapError("remove item", err, "userID", userID, "itemID", itemID)
	}
	c.logger.Debug("removed item", "userID", userID, "itemID", itemID)
	return nil
}

// begin runs the connectivity check and applies the call timeout.
func (c *Client) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if !c.checker.Online(ctx) {
		c.logger.Warn("store call skipped, client is offline")
		return ctx, func() {}, types.ErrOffline
	}
	if c.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		return ctx, cancel, nil
	}
	return ctx, func() {}, nil
}

// mapError passes validation errors through and wraps everything else in
// ErrStoreUnavailable.
func (c *Client) mapError(op string, err error, attrs ...any) error {
	if types.IsValidation(err) {
		return err
	}
	c.logger.Error("store call failed", append([]any{"op", op, "error", err}, attrs...)...)
	return fmt.Errorf("%w: %s: %w", types.ErrStoreUnavailable, op, err)
}
