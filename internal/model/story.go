// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, and struct tags tell
// encoding/json how each field appears on the wire.
package model

import "time"

// Story is one travel journal entry. It always belongs to exactly one user
// (UserID) and is only ever visible to or mutable by that user.
//
// VisitedLocation keeps the order the user entered places in. The SQLite
// store serialises it as a JSON array in a single TEXT column.
type Story struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Title           string    `json:"title"`
	Story           string    `json:"story"`
	VisitedLocation []string  `json:"visitedLocation"`
	ImageURL        string    `json:"imageUrl"`
	VisitedDate     time.Time `json:"visitedDate"`
	IsFavourite     bool      `json:"isFavourite"`
	CreatedAt       time.Time `json:"createdAt"`
}
