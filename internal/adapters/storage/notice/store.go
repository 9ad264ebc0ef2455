package notice

import (
	"context"

	domain "petnotice/internal/domain/notice"
)

// Store persists Notice state. Records are append-only: there is no update or
// delete path.
type Store interface {
	// Create appends exactly one row and returns the stored record including
	// its assigned ID and CreatedAt. imagePath may be empty (no image).
	Create(ctx context.Context, title, content, imagePath string) (domain.Notice, error)
	// ListAll returns every notice, most recent first.
	ListAll(ctx context.Context) ([]domain.Notice, error)
	// GetByID returns domain.ErrNotFound when no notice has the given id.
	GetByID(ctx context.Context, id int64) (domain.Notice, error)
}
