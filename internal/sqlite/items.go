// This file implements the item operations of the SQLite backend: keyset
// page reads, merge upserts and idempotent removes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

const itemColumns = "item_id, name, category, quantity, created_at, updated_at"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// FetchPage returns one page of the user's items ordered by name, item ID.
// A non-empty prefix restricts the page to names starting with it, ignoring
// case.
func (b *Backend) FetchPage(ctx context.Context, userID string, q types.PageQuery) (types.Page, error) {
	if userID == "" {
		return types.Page{}, types.ErrInvalidUser
	}
	q, err := q.Normalize()
	if err != nil {
		return types.Page{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.Page{}, types.ErrStoreDetached
	}

	query := "SELECT " + itemColumns + " FROM items WHERE user_id = ?"
	args := []any{userID}
	if q.Prefix != "" {
		query += " AND substr(name_fold, 1, ?) = ?"
		args = append(args, utf8.RuneCountInString(q.Prefix), q.Prefix)
	}
	if q.After != nil {
		query += " AND (name > ? OR (name = ? AND item_id > ?))"
		args = append(args, q.After.Name, q.After.Name, q.After.ItemID)
	}
	query += " ORDER BY name ASC, item_id ASC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.Page{}, fmt.Errorf("fetching items: %w", err)
	}
	defer rows.Close()

	items := []types.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return types.Page{}, fmt.Errorf("hydrating item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return types.Page{}, fmt.Errorf("iterating items: %w", err)
	}

	page := types.Page{Items: items}
	if len(items) > 0 {
		page.Next = types.CursorFor(items[len(items)-1], q.Prefix)
	}
	return page, nil
}

// Upsert creates or merges an item and persists inventory.jsonl.
func (b *Backend) Upsert(ctx context.Context, userID string, u types.ItemUpdate) (types.Item, error) {
	if userID == "" {
		return types.Item{}, types.ErrInvalidUser
	}
	if err := u.Validate(); err != nil {
		return types.Item{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.Item{}, types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Item{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanItem(tx.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE user_id = ? AND item_id = ?",
		userID, u.ID()))
	if errors.Is(err, sql.ErrNoRows) {
		existing = nil
	} else if err != nil {
		return types.Item{}, fmt.Errorf("loading item %s: %w", u.ID(), err)
	}

	item, err := u.Merge(existing, b.timestamp())
	if err != nil {
		return types.Item{}, err
	}

	if _, err := tx.ExecContext(ctx, insertItemSQL,
		userID, item.ItemID, item.Name, types.FoldName(item.Name), item.Category, item.Quantity,
		item.CreatedAt.Format(time.RFC3339), item.UpdatedAt.Format(time.RFC3339),
	); err != nil {
		return types.Item{}, fmt.Errorf("upserting item: %w", err)
	}
	if err := b.persistItemsJSONL(ctx, tx); err != nil {
		return types.Item{}, fmt.Errorf("persisting %s: %w", jsonlFileName, err)
	}
	if err := tx.Commit(); err != nil {
		return types.Item{}, fmt.Errorf("committing item: %w", err)
	}
	return item, nil
}

// Remove deletes an item. Removing an absent item succeeds without touching
// inventory.jsonl.
func (b *Backend) Remove(ctx context.Context, userID, itemID string) error {
	if userID == "" {
		return types.ErrInvalidUser
	}
	if itemID == "" {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM items WHERE user_id = ? AND item_id = ?", userID, itemID)
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", itemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", itemID, err)
	}
	if n == 0 {
		return nil
	}

	if err := b.persistItemsJSONL(ctx, tx); err != nil {
		return fmt.Errorf("persisting %s: %w", jsonlFileName, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// scanItem converts a single row into a *types.Item.
func scanItem(row rowScanner) (*types.Item, error) {
	var it types.Item
	var createdAt, updatedAt string
	if err := row.Scan(&it.ItemID, &it.Name, &it.Category, &it.Quantity, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	it.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	it.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &it, nil
}
