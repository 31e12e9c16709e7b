package model

import (
	"fmt"
	"strings"
)

// DefaultCategoryColor is used when a category is created without a color
const DefaultCategoryColor = "#4ECDC4"

// Category groups tasks
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryFields holds the caller supplied fields of a new category
type CategoryFields struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryPatch is a partial update. Nil fields keep their current value.
type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// Apply merges the patch onto c and returns the result.
func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	return c
}

// SameName compares category names the way uniqueness is enforced.
func SameName(a, b string) bool {
	return strings.EqualFold(a, b)
}

// InvalidValueError reports a field value outside its allowed set.
type InvalidValueError struct {
	Field   string
	Value   string
	Allowed string
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s: %q (valid: %s)", e.Field, e.Value, e.Allowed)
}
