package domain

import "time"

// Entry is a single blog post. AuthorID and CreatedAt are fixed at creation.
type Entry struct {
	ID        int64
	Title     string
	Content   string
	AuthorID  int64
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether userID authored the entry.
func (e *Entry) OwnedBy(userID int64) bool {
	return e != nil && userID != 0 && e.AuthorID == userID
}
