package users

import "time"

// DefaultDisplayName se usa cuando el proveedor no informa nombre.
const DefaultDisplayName = "unnamed"

type User struct {
	ID int64
	// Email normalizado (minúsculas, sin espacios). Único.
	Email       string
	DisplayName string
	Provider    string
	IsAdmin     bool
	CreatedAt   time.Time
}
