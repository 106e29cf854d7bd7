package model

// Category groups documents for dashboard filtering.
// Deleting a category does not delete its documents; their category
// reference is cleared instead.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
