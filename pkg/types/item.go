package types

import (
	"strings"
	"time"
	"unicode"
)

// Item categories. The set is fixed; Category values outside it are rejected.
const (
	CategoryFruit     = "Fruit"
	CategoryVegetable = "Vegetable"
	CategoryDairy     = "Dairy"
	CategoryMeat      = "Meat"
	CategoryGrain     = "Grain"
	CategoryOther     = "Other"
)

// Categories lists the recognized categories in display order.
var Categories = []string{
	CategoryFruit,
	CategoryVegetable,
	CategoryDairy,
	CategoryMeat,
	CategoryGrain,
	CategoryOther,
}

// validCategories is the set of recognized category values.
var validCategories = map[string]bool{
	CategoryFruit:     true,
	CategoryVegetable: true,
	CategoryDairy:     true,
	CategoryMeat:      true,
	CategoryGrain:     true,
	CategoryOther:     true,
}

// Item is one pantry record in a user's collection.
type Item struct {
	ItemID    string    `json:"id"`         // Derived from the name on creation, stable afterwards.
	Name      string    `json:"name"`       // Display name and sort key.
	Category  string    `json:"category"`   // One of the Category constants.
	Quantity  int       `json:"quantity"`   // Non-negative count.
	CreatedAt time.Time `json:"created_at"` // Set once by the store.
	UpdatedAt time.Time `json:"updated_at"` // Refreshed by every upsert.
}

// Update returns an ItemUpdate carrying every field of the item.
func (it Item) Update() ItemUpdate {
	name, category, quantity := it.Name, it.Category, it.Quantity
	return ItemUpdate{
		ItemID:   it.ItemID,
		Name:     &name,
		Category: &category,
		Quantity: &quantity,
	}
}

// ValidCategory reports whether category is one of the recognized values.
func ValidCategory(category string) bool {
	return validCategories[category]
}

// ParseCategory matches s case-insensitively against the recognized
// categories and returns the canonical spelling.
func ParseCategory(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(c, s) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// ItemIDFromName derives the identifier of a new item from its name: the
// name is trimmed and lower-cased, whitespace runs and slashes become a
// single dash. Names that differ only in case or spacing share an ID.
func ItemIDFromName(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '/' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return strings.Join(fields, "-")
}

// ItemUpdate is the payload of an upsert. Nil fields are left untouched
// when merging into an existing record.
type ItemUpdate struct {
	ItemID   string
	Name     *string
	Category *string
	Quantity *int
}

// ID returns the identifier the update targets: ItemID when set, otherwise
// the ID derived from Name.
func (u ItemUpdate) ID() string {
	if u.ItemID != "" {
		return u.ItemID
	}
	if u.Name != nil {
		return ItemIDFromName(*u.Name)
	}
	return ""
}

// Validate checks the fields present in the update. Names must contain a
// non-space character and no control characters, so they survive CSV
// export and the NUL-separated bolt index unchanged.
func (u ItemUpdate) Validate() error {
	if u.Name != nil && !validName(*u.Name) {
		return ErrInvalidName
	}
	if u.ID() == "" {
		return ErrInvalidID
	}
	if u.Category != nil && !ValidCategory(*u.Category) {
		return ErrInvalidCategory
	}
	if u.Quantity != nil && *u.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func validName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	return strings.IndexFunc(name, unicode.IsControl) < 0
}

// Merge applies the update on top of existing, which is nil when no item
// with the target ID is stored yet, and returns the record to persist.
// Creating an item requires a name. CreatedAt is kept on update.
func (u ItemUpdate) Merge(existing *Item, now time.Time) (Item, error) {
	if err := u.Validate(); err != nil {
		return Item{}, err
	}

	var it Item
	if existing == nil {
		if u.Name == nil {
			return Item{}, ErrInvalidName
		}
		it = Item{ItemID: u.ID(), CreatedAt: now}
	} else {
		it = *existing
	}

	if u.Name != nil {
		it.Name = strings.TrimSpace(*u.Name)
	}
	if u.Category != nil {
		it.Category = *u.Category
	}
	if u.Quantity != nil {
		it.Quantity = *u.Quantity
	}
	it.UpdatedAt = now
	return it, nil
}
