package notice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"petnotice/internal/adapters/storage"
	domain "petnotice/internal/domain/notice"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// timeNow is a variable for testability.
var timeNow = time.Now

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const noticeColumns = `id, title, content, image_path, created_at`

// Create inserts a new notice row.
// The ID is assigned by SQLite (AUTOINCREMENT, never reused) and CreatedAt is
// set here, not by the caller.
// PRE: title and content are non-empty (validated by the caller)
// POST: Exactly one row appended; returned Notice carries the assigned ID
func (s *SQLiteStore) Create(ctx context.Context, title, content, imagePath string) (domain.Notice, error) {
	createdAt := timeNow().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notices (title, content, image_path, created_at) VALUES (?, ?, ?, ?)`,
		title, content, nullableString(imagePath), createdAt.Format(timeLayout))
	if err != nil {
		return domain.Notice{}, fmt.Errorf("insert notice: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return domain.Notice{}, fmt.Errorf("notice insert id: %w", err)
	}
	return domain.Notice{
		ID:        id,
		Title:     title,
		Content:   content,
		ImagePath: imagePath,
		CreatedAt: createdAt,
	}, nil
}

// ListAll returns all notices ordered by created_at descending.
// Ties on created_at break by id descending for a deterministic order.
// PRE: none
// POST: Returns the full materialized result set, most recent first
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Notice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noticeColumns+` FROM notices ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var notices []domain.Notice
	for rows.Next() {
		n, err := scanNotice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

// GetByID retrieves a notice by ID.
// PRE: id is a valid integer
// POST: Returns the entity, or domain.ErrNotFound when absent
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (domain.Notice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noticeColumns+` FROM notices WHERE id = ?`, id)
	n, err := scanNotice(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Notice{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Notice{}, fmt.Errorf("get notice: %w", err)
	}
	return n, nil
}

// scanNotice scans one row into a Notice via the given Scan function.
func scanNotice(scan func(...any) error) (domain.Notice, error) {
	var n domain.Notice
	var imagePath sql.NullString
	var createdAt string

	if err := scan(&n.ID, &n.Title, &n.Content, &imagePath, &createdAt); err != nil {
		return domain.Notice{}, err
	}
	if imagePath.Valid {
		n.ImagePath = imagePath.String
	}
	n.CreatedAt = parseTime(createdAt, n.ID)
	return n, nil
}

// parseTime parses a stored time string, logging a warning on failure.
func parseTime(raw string, noticeID int64) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("notice: failed to parse created_at", "notice_id", noticeID, "raw", raw, "error", err)
	}
	return t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
