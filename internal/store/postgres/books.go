package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/temcen/bookrec/pkg/models"
)

type BookStore struct {
	db DB
}

func NewBookStore(db DB) *BookStore {
	return &BookStore{db: db}
}

func (s *BookStore) CreateBook(ctx context.Context, book *models.Book) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		book.ID, book.Title, book.Author, book.ISBN, book.Description, book.Genres, book.Tags,
		book.PublicationYear, book.Publisher, book.Language, book.PageCount, book.CoverImageURL,
		book.AverageRating, book.RatingsCount, book.CreatedBy, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return conflict(err)
		}
		return fmt.Errorf("failed to insert book: %w", err)
	}
	return nil
}

func (s *BookStore) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	book, err := scanBook(row)
	if err != nil {
		return nil, notFound(err)
	}
	return &book, nil
}

// ListBooks pages through the catalog in creation order, optionally restricted
// to books carrying genre.
func (s *BookStore) ListBooks(ctx context.Context, genre string, limit, offset int) ([]models.Book, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE $1 = '' OR $1 = ANY(genres)
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`,
		genre, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return collectBooks(rows)
}

// ListCandidates returns every catalog book whose ID is not in exclude.
func (s *BookStore) ListCandidates(ctx context.Context, exclude map[uuid.UUID]struct{}) ([]models.Book, error) {
	ids := make([]uuid.UUID, 0, len(exclude))
	for id := range exclude {
		ids = append(ids, id)
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE NOT (id = ANY($1))
		ORDER BY created_at, id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate books: %w", err)
	}
	return collectBooks(rows)
}

// GetBooks returns the books with the given IDs keyed by ID; unknown IDs are
// absent from the result.
func (s *BookStore) GetBooks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Book, error) {
	books := make(map[uuid.UUID]models.Book, len(ids))
	if len(ids) == 0 {
		return books, nil
	}

	rows, err := s.db.Query(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	list, err := collectBooks(rows)
	if err != nil {
		return nil, err
	}
	for _, b := range list {
		books[b.ID] = b
	}
	return books, nil
}
