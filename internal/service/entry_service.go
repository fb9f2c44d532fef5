package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"entryblog/internal/domain"
	"entryblog/internal/pagination"
	"entryblog/internal/repository"
)

const maxTitleLength = 1024

// EntryPage is one page of the newest-first entry listing.
type EntryPage struct {
	Entries []domain.Entry
	Window  pagination.Window
	Total   int
}

// EntryService runs the entry lifecycle. Mutations take the caller's identity
// and only the entry's author may edit or delete it.
type EntryService interface {
	List(ctx context.Context, page, limit int) (*EntryPage, error)
	Create(ctx context.Context, who domain.Identity, title, content string) (*domain.Entry, error)
	Get(ctx context.Context, id int64) (*domain.Entry, error)
	GetOwned(ctx context.Context, who domain.Identity, id int64) (*domain.Entry, error)
	UpdateContent(ctx context.Context, who domain.Identity, id int64, content string) (*domain.Entry, error)
	Delete(ctx context.Context, who domain.Identity, id int64) error
}

type entryService struct {
	entries repository.EntryRepository
}

func NewEntryService(entries repository.EntryRepository) EntryService {
	return &entryService{entries: entries}
}

func (s *entryService) List(ctx context.Context, page, limit int) (*EntryPage, error) {
	total, err := s.entries.Count(ctx)
	if err != nil {
		return nil, err
	}

	window := pagination.New(total, page, limit)
	result := &EntryPage{
		Entries: []domain.Entry{},
		Window:  window,
		Total:   total,
	}

	offset, count, ok := window.Bounds(total)
	if !ok {
		return result, nil
	}

	entries, err := s.entries.List(ctx, offset, count)
	if err != nil {
		return nil, err
	}
	result.Entries = entries
	return result, nil
}

func (s *entryService) Create(ctx context.Context, who domain.Identity, title, content string) (*domain.Entry, error) {
	if !who.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidEntry)
	}
	if len(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title is longer than %d bytes", ErrInvalidEntry, maxTitleLength)
	}

	entry := &domain.Entry{
		Title:    title,
		Content:  content,
		AuthorID: who.UserID,
		Author:   who.Name,
	}
	if _, err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *entryService) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *entryService) GetOwned(ctx context.Context, who domain.Identity, id int64) (*domain.Entry, error) {
	if !who.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.OwnedBy(who.UserID) {
		return nil, ErrForbidden
	}
	return entry, nil
}

// UpdateContent replaces the entry body. Title, author and creation time are kept.
func (s *entryService) UpdateContent(ctx context.Context, who domain.Identity, id int64, content string) (*domain.Entry, error) {
	entry, err := s.GetOwned(ctx, who, id)
	if err != nil {
		return nil, err
	}
	if err := s.entries.UpdateContent(ctx, id, content); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	entry.Content = content
	return entry, nil
}

func (s *entryService) Delete(ctx context.Context, who domain.Identity, id int64) error {
	if _, err := s.GetOwned(ctx, who, id); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
