package types

import "context"

// Backend is a per-user document collection of Items. Callers attach to a
// backend, issue page reads and single-document writes scoped by user ID,
// and detach when done.
type Backend interface {
	// Attach connects the backend to the storage described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrStoreDetached.
	Detach() error

	// FetchPage returns up to q.Limit items of the user's collection ordered
	// by name ascending, ties broken by item ID, starting strictly after
	// q.After when set. Page.Next is the cursor of the last returned item,
	// or nil when the page is empty.
	FetchPage(ctx context.Context, userID string, q PageQuery) (Page, error)

	// Upsert creates the item when no item with the update's ID exists,
	// otherwise merges the non-nil fields into the stored record. Returns
	// the stored item.
	Upsert(ctx context.Context, userID string, u ItemUpdate) (Item, error)

	// Remove deletes the item with the given ID. Removing an absent item
	// is not an error.
	Remove(ctx context.Context, userID, itemID string) error
}
