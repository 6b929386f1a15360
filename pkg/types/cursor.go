package types

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// DefaultPageSize is the number of items fetched per page when a query does
// not set a limit.
const DefaultPageSize = 10

// MaxPageSize caps the limit a single page query may request.
const MaxPageSize = 500

// Cursor marks the last item of a fetched page. It is only valid for the
// query (search prefix) that produced it.
type Cursor struct {
	Name   string `json:"n"`
	ItemID string `json:"i"`
	Prefix string `json:"q"`
}

// CursorFor returns the cursor pointing at item within the query for prefix.
func CursorFor(item Item, prefix string) *Cursor {
	return &Cursor{Name: item.Name, ItemID: item.ItemID, Prefix: prefix}
}

// Before reports whether the cursor position sorts strictly before item in
// the (name, item ID) ordering.
func (c Cursor) Before(item Item) bool {
	if c.Name != item.Name {
		return c.Name < item.Name
	}
	return c.ItemID < item.ItemID
}

// Encode returns the opaque transport form of the cursor.
func (c Cursor) Encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor produced by Encode. An empty string yields a
// nil cursor.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.ItemID == "" {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// PageQuery describes one page read: an optional case-insensitive name
// prefix, a page size and the cursor to resume after.
type PageQuery struct {
	Prefix string
	Limit  int
	After  *Cursor
}

// Normalize folds the prefix, applies the default and maximum limit, and
// checks that the cursor belongs to this query.
func (q PageQuery) Normalize() (PageQuery, error) {
	q.Prefix = NormalizePrefix(q.Prefix)
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.After != nil {
		if q.After.ItemID == "" {
			return q, ErrInvalidCursor
		}
		if q.After.Prefix != q.Prefix {
			return q, ErrCursorMismatch
		}
	}
	return q, nil
}

// Page is the result of a page read.
type Page struct {
	Items []Item
	Next  *Cursor
}

// NormalizePrefix returns the folded form of a search term used for prefix
// matching.
func NormalizePrefix(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FoldName returns the folded form of an item name compared against
// normalized prefixes.
func FoldName(name string) string {
	return strings.ToLower(name)
}

// MatchesPrefix reports whether name starts with the normalized prefix,
// ignoring case. An empty prefix matches every name.
func MatchesPrefix(name, prefix string) bool {
	return strings.HasPrefix(FoldName(name), prefix)
}
