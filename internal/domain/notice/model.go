package notice

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyTitle   = errors.New("notice title cannot be empty")
	ErrEmptyContent = errors.New("notice content cannot be empty")
	ErrNotFound     = errors.New("notice not found")
)

// Notice is a single pet-care update posted by staff and read by owners.
// Content supports Markdown formatting. ImagePath is the public path of an
// optional attached photo (empty when no photo was uploaded).
type Notice struct {
	ID        int64
	Title     string
	Content   string
	ImagePath string // public path under /uploads, empty = no image
	CreatedAt time.Time
}

// Validate checks if the Notice has valid data.
// PRE: Notice struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notice) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(n.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// HasImage returns true if the notice carries an attached image.
// INVARIANT: ImagePath is not mutated
func (n *Notice) HasImage() bool {
	return n.ImagePath != ""
}
