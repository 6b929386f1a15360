package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// nameKey builds the names-bucket key. Names never contain NUL, so byte
// order of the keys equals (name, item ID) order.
func nameKey(name, itemID string) []byte {
	key := make([]byte, 0, len(name)+1+len(itemID))
	key = append(key, name...)
	key = append(key, 0)
	key = append(key, itemID...)
	return key
}

// userBuckets returns the items and names buckets of a user, or nils when
// the user has no collection yet.
func userBuckets(tx *bbolt.Tx, userID string) (items, names *bbolt.Bucket) {
	ub := tx.Bucket(bucketUsers).Bucket([]byte(userID))
	if ub == nil {
		return nil, nil
	}
	return ub.Bucket(bucketItems), ub.Bucket(bucketNames)
}

func decodeItem(data []byte) (*types.Item, error) {
	var it types.Item
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("decoding item: %w", err)
	}
	return &it, nil
}

// FetchPage walks the names index from the cursor position and collects up
// to q.Limit items whose name matches the prefix.
func (b *Backend) FetchPage(ctx context.Context, userID string, q types.PageQuery) (types.Page, error) {
	if userID == "" {
		return types.Page{}, types.ErrInvalidUser
	}
	q, err := q.Normalize()
	if err != nil {
		return types.Page{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.Page{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.Page{}, types.ErrStoreDetached
	}

	items := []types.Item{}
	err = b.db.View(func(tx *bbolt.Tx) error {
		itemsB, namesB := userBuckets(tx, userID)
		if itemsB == nil || namesB == nil {
			return nil
		}

		c := namesB.Cursor()
		var k, v []byte
		if q.After != nil {
			seek := nameKey(q.After.Name, q.After.ItemID)
			k, v = c.Seek(seek)
			if k != nil && bytes.Equal(k, seek) {
				k, v = c.Next()
			}
		} else {
			k, v = c.First()
		}

		for ; k != nil && len(items) < q.Limit; k, v = c.Next() {
			raw := itemsB.Get(v)
			if raw == nil {
				continue
			}
			it, err := decodeItem(raw)
			if err != nil {
				return err
			}
			if !types.MatchesPrefix(it.Name, q.Prefix) {
				continue
			}
			items = append(items, *it)
		}
		return nil
	})
	if err != nil {
		return types.Page{}, fmt.Errorf("fetching items: %w", err)
	}

	page := types.Page{Items: items}
	if len(items) > 0 {
		page.Next = types.CursorFor(items[len(items)-1], q.Prefix)
	}
	return page, nil
}

// Upsert creates or merges an item and moves its names-index entry when the
// name changes.
func (b *Backend) Upsert(ctx context.Context, userID string, u types.ItemUpdate) (types.Item, error) {
	if userID == "" {
		return types.Item{}, types.ErrInvalidUser
	}
	if err := u.Validate(); err != nil {
		return types.Item{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.Item{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.Item{}, types.ErrStoreDetached
	}

	var item types.Item
	err := b.db.Update(func(tx *bbolt.Tx) error {
		ub, err := tx.Bucket(bucketUsers).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return err
		}
		itemsB, err := ub.CreateBucketIfNotExists(bucketItems)
		if err != nil {
			return err
		}
		namesB, err := ub.CreateBucketIfNotExists(bucketNames)
		if err != nil {
			return err
		}

		id := u.ID()
		var existing *types.Item
		if raw := itemsB.Get([]byte(id)); raw != nil {
			if existing, err = decodeItem(raw); err != nil {
				return err
			}
		}

		item, err = u.Merge(existing, b.timestamp())
		if err != nil {
			return err
		}
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding item: %w", err)
		}

		if existing != nil {
			if err := namesB.Delete(nameKey(existing.Name, id)); err != nil {
				return err
			}
		}
		if err := namesB.Put(nameKey(item.Name, id), []byte(id)); err != nil {
			return err
		}
		return itemsB.Put([]byte(id), data)
	})
	if err != nil {
		if types.IsValidation(err) {
			return types.Item{}, err
		}
		return types.Item{}, fmt.Errorf("upserting item: %w", err)
	}
	return item, nil
}

// Remove deletes an item and its names-index entry. Absent items are a no-op.
func (b *Backend) Remove(ctx context.Context, userID, itemID string) error {
	if userID == "" {
		return types.ErrInvalidUser
	}
	if itemID == "" {
		return types.ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		itemsB, namesB := userBuckets(tx, userID)
		if itemsB == nil || namesB == nil {
			return nil
		}
		raw := itemsB.Get([]byte(itemID))
		if raw == nil {
			return nil
		}
		it, err := decodeItem(raw)
		if err != nil {
			return err
		}
		if err := namesB.Delete(nameKey(it.Name, itemID)); err != nil {
			return err
		}
		return itemsB.Delete([]byte(itemID))
	})
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", itemID, err)
	}
	return nil
}
