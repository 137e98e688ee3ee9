// Package postgres implements the catalog, rating, user and preference stores
// on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

// DB is the subset of *pgxpool.Pool the stores use.
type DB interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id               UUID PRIMARY KEY,
	title            TEXT NOT NULL,
	author           TEXT NOT NULL,
	isbn             TEXT,
	description      TEXT NOT NULL,
	genres           TEXT[] NOT NULL DEFAULT '{}',
	tags             TEXT[] NOT NULL DEFAULT '{}',
	publication_year INT NOT NULL,
	publisher        TEXT NOT NULL,
	language         TEXT NOT NULL,
	page_count       INT NOT NULL,
	cover_image_url  TEXT,
	average_rating   DOUBLE PRECISION NOT NULL DEFAULT 0,
	ratings_count    INT NOT NULL DEFAULT 0,
	created_by       UUID NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS books_genres_idx ON books USING GIN (genres);

CREATE TABLE IF NOT EXISTS book_ratings (
	id         UUID PRIMARY KEY,
	book_id    UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	user_id    UUID NOT NULL,
	rating     DOUBLE PRECISION NOT NULL CHECK (rating BETWEEN 1 AND 5),
	review     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (book_id, user_id)
);
CREATE INDEX IF NOT EXISTS book_ratings_user_idx ON book_ratings (user_id, created_at);

CREATE TABLE IF NOT EXISTS user_stated_preferences (
	user_id    UUID PRIMARY KEY,
	genres     TEXT[] NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_genre_preferences (
	user_id          UUID NOT NULL,
	genre            TEXT NOT NULL,
	preference_score DOUBLE PRECISION NOT NULL CHECK (preference_score BETWEEN 0 AND 1),
	last_updated     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, genre)
);

CREATE TABLE IF NOT EXISTS recommendation_log (
	id         UUID PRIMARY KEY,
	request_id UUID NOT NULL,
	user_id    UUID NOT NULL,
	book_id    UUID NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	position   INT NOT NULL,
	clicked    BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS recommendation_log_user_idx ON recommendation_log (user_id, created_at);
`

// Migrate creates the tables the stores need if they do not exist yet.
func Migrate(ctx context.Context, db DB, logger *logrus.Logger) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("PostgreSQL schema applied")
	return nil
}

const bookColumns = `id, title, author, isbn, description, genres, tags, publication_year,
	publisher, language, page_count, cover_image_url, average_rating, ratings_count,
	created_by, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row scanner) (models.Book, error) {
	var b models.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.Genres, &b.Tags,
		&b.PublicationYear, &b.Publisher, &b.Language, &b.PageCount, &b.CoverImageURL,
		&b.AverageRating, &b.RatingsCount, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func collectBooks(rows pgx.Rows) ([]models.Book, error) {
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}
	return books, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
