package models

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	ISBN            *string   `json:"isbn,omitempty" db:"isbn"`
	Description     string    `json:"description" db:"description"`
	Genres          []string  `json:"genres" db:"genres"`
	Tags            []string  `json:"tags" db:"tags"`
	PublicationYear int       `json:"publication_year" db:"publication_year"`
	Publisher       string    `json:"publisher" db:"publisher"`
	Language        string    `json:"language" db:"language"`
	PageCount       int       `json:"page_count" db:"page_count"`
	CoverImageURL   *string   `json:"cover_image_url,omitempty" db:"cover_image_url"`
	AverageRating   float64   `json:"average_rating" db:"average_rating"` // 0 until first rating
	RatingsCount    int       `json:"ratings_count" db:"ratings_count"`
	CreatedBy       uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// HasGenre reports whether the book carries the given genre label.
func (b *Book) HasGenre(genre string) bool {
	for _, g := range b.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

type BookRating struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookID    uuid.UUID `json:"book_id" db:"book_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Rating    float64   `json:"rating" db:"rating"` // 1.0 to 5.0
	Review    *string   `json:"review,omitempty" db:"review"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RatedBook pairs a book with the rating one user gave it.
type RatedBook struct {
	Book   Book    `json:"book"`
	Rating float64 `json:"rating"`
}

type CreateBookRequest struct {
	Title           string   `json:"title" validate:"required,min=1,max=500"`
	Author          string   `json:"author" validate:"required,min=1,max=200"`
	ISBN            *string  `json:"isbn,omitempty" validate:"omitempty,max=20"`
	Description     string   `json:"description" validate:"required,min=10,max=5000"`
	Genres          []string `json:"genres" validate:"required,min=1,dive,required,max=100"`
	Tags            []string `json:"tags,omitempty" validate:"omitempty,dive,max=100"`
	PublicationYear int      `json:"publication_year" validate:"required,min=1000,max=2024"`
	Publisher       string   `json:"publisher" validate:"required,min=1,max=200"`
	Language        string   `json:"language" validate:"required,min=1,max=50"`
	PageCount       int      `json:"page_count" validate:"required,min=1,max=10000"`
	CoverImageURL   *string  `json:"cover_image_url,omitempty" validate:"omitempty,url"`
}

type RateBookRequest struct {
	Rating float64 `json:"rating" validate:"required,min=1,max=5"`
	Review *string `json:"review,omitempty" validate:"omitempty,max=1000"`
}

type RateBookResponse struct {
	Rating      BookRating    `json:"rating"`
	Book        Book          `json:"book"`
	Preferences PreferenceMap `json:"preferences"`
}

type BookListQuery struct {
	Genre  string `form:"genre"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

type BookListResponse struct {
	Books  []Book `json:"books"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
