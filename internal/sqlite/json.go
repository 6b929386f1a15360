package sqlite

// itemJSON is one line of inventory.jsonl. Timestamps are RFC 3339 strings.
type itemJSON struct {
	UserID    string `json:"user_id"`
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
