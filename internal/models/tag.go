package models

// Tag names are globally unique; tags are created lazily on first use
// and never deleted, even when no note references them.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
