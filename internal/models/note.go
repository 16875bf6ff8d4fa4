package models

import "time"

// Note is a single user-owned note with its attached tags.
type Note struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    int       `json:"-"` // owner; never serialized
	Tags      []Tag     `json:"tags"`
}
