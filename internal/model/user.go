package model

// User owns documents and receives upload notifications.
// Email may be empty; notifications are then skipped.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
