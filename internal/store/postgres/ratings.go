package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

const uniqueViolation = "23505"

type RatingStore struct {
	db DB
}

func NewRatingStore(db DB) *RatingStore {
	return &RatingStore{db: db}
}

// SaveRating inserts the rating, folds it into the book's average and count and,
// when learn is set, replaces the user's learned preferences, all inside one
// transaction. The book row is locked so concurrent ratings of the same book
// are applied one after another.
func (s *RatingStore) SaveRating(ctx context.Context, rating *models.BookRating, learn store.LearnFunc) (*models.Book, models.PreferenceMap, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, rating.BookID)
	book, err := scanBook(row)
	if err != nil {
		return nil, nil, notFound(err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO book_ratings (id, book_id, user_id, rating, review, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (book_id, user_id) DO NOTHING`,
		rating.ID, rating.BookID, rating.UserID, rating.Rating, rating.Review, rating.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil, store.ErrConflict
	}

	book.AverageRating = store.NewAverageRating(book.AverageRating, book.RatingsCount, rating.Rating)
	book.RatingsCount++
	book.UpdatedAt = time.Now()

	_, err = tx.Exec(ctx, `
		UPDATE books SET average_rating = $2, ratings_count = $3, updated_at = $4
		WHERE id = $1`,
		book.ID, book.AverageRating, book.RatingsCount, book.UpdatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update book rating stats: %w", err)
	}

	var prefs models.PreferenceMap
	if learn != nil {
		current, err := readPreferences(ctx, tx, selectPreferences+` FOR UPDATE`, rating.UserID)
		if err != nil {
			return nil, nil, err
		}
		prefs, err = learn(book, current)
		if err != nil {
			return nil, nil, err
		}
		if err := replacePreferences(ctx, tx, rating.UserID, prefs); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit rating: %w", err)
	}
	return &book, prefs, nil
}

// GetRatingHistory returns the user's rated books, oldest rating first.
func (s *RatingStore) GetRatingHistory(ctx context.Context, userID uuid.UUID) ([]models.RatedBook, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.title, b.author, b.isbn, b.description, b.genres, b.tags, b.publication_year,
			b.publisher, b.language, b.page_count, b.cover_image_url, b.average_rating, b.ratings_count,
			b.created_by, b.created_at, b.updated_at, r.rating
		FROM book_ratings r
		JOIN books b ON b.id = r.book_id
		WHERE r.user_id = $1
		ORDER BY r.created_at, r.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating history: %w", err)
	}
	defer rows.Close()

	history := make([]models.RatedBook, 0)
	for rows.Next() {
		var rb models.RatedBook
		b := &rb.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.Genres, &b.Tags,
			&b.PublicationYear, &b.Publisher, &b.Language, &b.PageCount, &b.CoverImageURL,
			&b.AverageRating, &b.RatingsCount, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
			&rb.Rating,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rated book: %w", err)
		}
		history = append(history, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating history: %w", err)
	}
	return history, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func conflict(err error) error {
	return fmt.Errorf("%w: %v", store.ErrConflict, err)
}
