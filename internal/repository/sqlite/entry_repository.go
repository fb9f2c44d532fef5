package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entryblog/internal/domain"
	"entryblog/internal/repository"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	author_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(author_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at DESC, id ASC);
`

const selectEntry = `
SELECT e.id, e.title, e.content, e.author_id, u.name, e.created_at, e.updated_at
FROM entries e
JOIN users u ON u.id = e.author_id`

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) repository.EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createEntriesTable); err != nil {
		return fmt.Errorf("create entries table: %w", err)
	}
	return nil
}

func (r *EntryRepository) Create(ctx context.Context, entry *domain.Entry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.UpdatedAt = entry.CreatedAt

	res, err := r.db.ExecContext(ctx, `
INSERT INTO entries (title, content, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		entry.Title,
		entry.Content,
		entry.AuthorID,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry last insert id: %w", err)
	}
	entry.ID = id
	return id, nil
}

func (r *EntryRepository) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	row := r.db.QueryRowContext(ctx, selectEntry+`
WHERE e.id = ?`,
		id,
	)
	return scanEntry(row)
}

func (r *EntryRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE entries
SET content=?, updated_at=?
WHERE id=?`,
		content,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update entry content: %w", err)
	}
	return expectAffected(res, "update entry")
}

func (r *EntryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return expectAffected(res, "delete entry")
}

func (r *EntryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (r *EntryRepository) List(ctx context.Context, offset, limit int) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectEntry+`
ORDER BY e.created_at DESC, e.id ASC
LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Entry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

func expectAffected(res sql.Result, op string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}

func scanEntry(scanner interface {
	Scan(dest ...any) error
}) (*domain.Entry, error) {
	var (
		entry     domain.Entry
		createdAt time.Time
		updatedAt time.Time
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Title,
		&entry.Content,
		&entry.AuthorID,
		&entry.Author,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entry: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	entry.CreatedAt = createdAt.Local()
	entry.UpdatedAt = updatedAt.Local()
	return &entry, nil
}
