// This file implements JSONL loading on Attach and JSONL persistence after
// every mutation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

const insertItemSQL = `INSERT OR REPLACE INTO items
    (user_id, item_id, name, name_fold, category, quantity, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// loadItemsJSONL reads inventory.jsonl and inserts its records into the items
// table. Loading is transactional: all succeed or the table stays empty.
// Malformed records and records without a user or item ID are skipped; a
// later line for the same key replaces an earlier one.
func loadItemsJSONL(db *sql.DB, path string) error {
	records, err := readJSONL(path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertItemSQL)
	if err != nil {
		return fmt.Errorf("preparing item insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var ij itemJSON
		if err := json.Unmarshal(rec, &ij); err != nil {
			continue
		}
		if ij.UserID == "" || ij.ItemID == "" {
			continue
		}
		if _, err := time.Parse(time.RFC3339, ij.CreatedAt); err != nil {
			continue
		}
		if _, err := time.Parse(time.RFC3339, ij.UpdatedAt); err != nil {
			continue
		}
		if _, err := stmt.Exec(
			ij.UserID, ij.ItemID, ij.Name, types.FoldName(ij.Name),
			ij.Category, ij.Quantity, ij.CreatedAt, ij.UpdatedAt,
		); err != nil {
			return fmt.Errorf("loading item %s/%s: %w", ij.UserID, ij.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// persistItemsJSONL reads every item through q and rewrites inventory.jsonl
// atomically. Mutations pass their open transaction and commit only after
// the file is written, so a failed write leaves SQLite unchanged. The caller
// must hold b.mu.
func (b *Backend) persistItemsJSONL(ctx context.Context, q queryer) error {
	rows, err := q.QueryContext(ctx,
		`SELECT user_id, item_id, name, category, quantity, created_at, updated_at
         FROM items ORDER BY user_id, name, item_id`)
	if err != nil {
		return fmt.Errorf("querying items for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var ij itemJSON
		if err := rows.Scan(&ij.UserID, &ij.ItemID, &ij.Name, &ij.Category,
			&ij.Quantity, &ij.CreatedAt, &ij.UpdatedAt); err != nil {
			return fmt.Errorf("scanning item for JSONL: %w", err)
		}
		data, err := json.Marshal(ij)
		if err != nil {
			return fmt.Errorf("marshaling item for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating items for JSONL: %w", err)
	}

	return writeJSONL(b.jsonlPath(), records)
}
