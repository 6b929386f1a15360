// Package sqlite implements the SQLite backend for the pantry inventory.
// SQLite is the query engine; inventory.jsonl in DataDir is the source of
// truth and is reloaded on every Attach.
package sqlite

// Schema DDL.
const (
	createItems = `CREATE TABLE items (
    user_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    name TEXT NOT NULL,
    name_fold TEXT NOT NULL,
    category TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (user_id, item_id)
);`
)

// Index DDL for the page queries.
const (
	idxItemsUserName = `CREATE INDEX idx_items_user_name ON items(user_id, name, item_id);`
	idxItemsUserFold = `CREATE INDEX idx_items_user_fold ON items(user_id, name_fold);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createItems,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxItemsUserName,
	idxItemsUserFold,
}
