package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"entryblog/internal/domain"
	"entryblog/internal/repository"
)

var createEntriesTable = []string{`
CREATE TABLE IF NOT EXISTS entries (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	author_id BIGINT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries (created_at DESC, id ASC)`,
}

const selectEntry = `
		SELECT e.id, e.title, e.content, e.author_id, u.name, e.created_at, e.updated_at
		FROM entries e
		JOIN users u ON u.id = e.author_id`

type EntryRepository struct {
	pool *pgxpool.Pool
}

func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

func (r *EntryRepository) Init(ctx context.Context) error {
	for _, stmt := range createEntriesTable {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create entries table: %w", err)
		}
	}
	return nil
}

func (r *EntryRepository) Create(ctx context.Context, entry *domain.Entry) (int64, error) {
	stampCreated(entry, time.Now())

	row := r.pool.QueryRow(ctx, `
		INSERT INTO entries (title, content, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, entry.Title, entry.Content, entry.AuthorID, entry.CreatedAt, entry.UpdatedAt)

	if err := row.Scan(&entry.ID); err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	return entry.ID, nil
}

func (r *EntryRepository) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	row := r.pool.QueryRow(ctx, selectEntry+`
		WHERE e.id = $1
	`, id)
	return scanEntry(row)
}

func (r *EntryRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE entries
		SET content = $1, updated_at = $2
		WHERE id = $3
	`, content, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update entry content: %w", err)
	}
	return expectAffected(tag, "update entry")
}

func (r *EntryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return expectAffected(tag, "delete entry")
}

func (r *EntryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (r *EntryRepository) List(ctx context.Context, offset, limit int) ([]domain.Entry, error) {
	rows, err := r.pool.Query(ctx, selectEntry+`
		ORDER BY e.created_at DESC, e.id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
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

// stampCreated fills a missing creation time and stores both stamps in UTC.
func stampCreated(entry *domain.Entry, now time.Time) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.UpdatedAt = entry.CreatedAt
}

func expectAffected(tag pgconn.CommandTag, op string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	e := &domain.Entry{}
	if err := row.Scan(&e.ID, &e.Title, &e.Content, &e.AuthorID, &e.Author, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entry: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return e, nil
}

var _ repository.EntryRepository = (*EntryRepository)(nil)
