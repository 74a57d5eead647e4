package signature

import "fmt"

// Category is one axis of a classification.
type Category string

const (
	CategoryDevice  Category = "device"
	CategoryBrowser Category = "browser"
	CategoryOS      Category = "os"
)

// Unknown is the sentinel name reported when no entry of a category matches.
const Unknown = "Unknown"

// Categories lists every category in classification order.
// The order is significant: it drives conflict-resolution tie breaks.
var Categories = []Category{CategoryDevice, CategoryBrowser, CategoryOS}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryDevice, CategoryBrowser, CategoryOS:
		return true
	}
	return false
}

// ParseCategory converts a raw string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}
