// Package memory keeps every store in process memory. It backs the server when
// no database is configured and stands in for the real stores in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

type ratingKey struct {
	bookID uuid.UUID
	userID uuid.UUID
}

type Store struct {
	mu sync.RWMutex

	books     map[uuid.UUID]models.Book
	bookOrder []uuid.UUID
	ratings   map[ratingKey]models.BookRating
	stated    map[uuid.UUID][]string
	learned   map[uuid.UUID]models.PreferenceMap
	served    map[uuid.UUID]models.RecommendationLogEntry
}

func New() *Store {
	return &Store{
		books:   make(map[uuid.UUID]models.Book),
		ratings: make(map[ratingKey]models.BookRating),
		stated:  make(map[uuid.UUID][]string),
		learned: make(map[uuid.UUID]models.PreferenceMap),
		served:  make(map[uuid.UUID]models.RecommendationLogEntry),
	}
}

func (s *Store) CreateBook(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.books[book.ID]; exists {
		return store.ErrConflict
	}
	s.books[book.ID] = copyBook(*book)
	s.bookOrder = append(s.bookOrder, book.ID)
	return nil
}

func (s *Store) GetBook(_ context.Context, id uuid.UUID) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	b := copyBook(book)
	return &b, nil
}

func (s *Store) GetBooks(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make(map[uuid.UUID]models.Book, len(ids))
	for _, id := range ids {
		if book, ok := s.books[id]; ok {
			books[id] = copyBook(book)
		}
	}
	return books, nil
}

func (s *Store) ListBooks(_ context.Context, genre string, limit, offset int) ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]models.Book, 0)
	skipped := 0
	for _, id := range s.bookOrder {
		book := s.books[id]
		if genre != "" && !book.HasGenre(genre) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(books) >= limit {
			break
		}
		books = append(books, copyBook(book))
	}
	return books, nil
}

func (s *Store) ListCandidates(_ context.Context, exclude map[uuid.UUID]struct{}) ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]models.Book, 0, len(s.bookOrder))
	for _, id := range s.bookOrder {
		if _, skip := exclude[id]; skip {
			continue
		}
		books = append(books, copyBook(s.books[id]))
	}
	return books, nil
}

// SaveRating stores the rating, folds it into the book's statistics and, when
// learn is set, replaces the user's learned preferences in one step. Nothing
// changes if learn fails. learn runs under the store lock and must not call
// back into the store.
func (s *Store) SaveRating(_ context.Context, rating *models.BookRating, learn store.LearnFunc) (*models.Book, models.PreferenceMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[rating.BookID]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	key := ratingKey{bookID: rating.BookID, userID: rating.UserID}
	if _, exists := s.ratings[key]; exists {
		return nil, nil, store.ErrConflict
	}

	book.AverageRating = store.NewAverageRating(book.AverageRating, book.RatingsCount, rating.Rating)
	book.RatingsCount++
	book.UpdatedAt = time.Now()

	var prefs models.PreferenceMap
	if learn != nil {
		var err error
		prefs, err = learn(copyBook(book), s.learned[rating.UserID].Clone())
		if err != nil {
			return nil, nil, err
		}
		s.learned[rating.UserID] = prefs.Clone()
	}

	s.ratings[key] = *rating
	s.books[book.ID] = book

	b := copyBook(book)
	return &b, prefs, nil
}

func (s *Store) GetRatingHistory(_ context.Context, userID uuid.UUID) ([]models.RatedBook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ratings []models.BookRating
	for key, rating := range s.ratings {
		if key.userID == userID {
			ratings = append(ratings, rating)
		}
	}
	sort.Slice(ratings, func(i, j int) bool {
		if ratings[i].CreatedAt.Equal(ratings[j].CreatedAt) {
			return ratings[i].ID.String() < ratings[j].ID.String()
		}
		return ratings[i].CreatedAt.Before(ratings[j].CreatedAt)
	})

	history := make([]models.RatedBook, 0, len(ratings))
	for _, r := range ratings {
		history = append(history, models.RatedBook{Book: copyBook(s.books[r.BookID]), Rating: r.Rating})
	}
	return history, nil
}

func (s *Store) StatedPreferences(_ context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string{}, s.stated[userID]...), nil
}

func (s *Store) UpdateStatedPreferences(_ context.Context, userID uuid.UUID, genres []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stated[userID] = append([]string{}, genres...)
	return nil
}

// Get returns the learned preferences of userID, or an empty map.
func (s *Store) Get(_ context.Context, userID uuid.UUID) (models.PreferenceMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.learned[userID].Clone(), nil
}

// SetLearned replaces the learned preferences of userID; used by tests.
func (s *Store) SetLearned(userID uuid.UUID, prefs models.PreferenceMap) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.learned[userID] = prefs.Clone()
}

func (s *Store) LogRecommendations(_ context.Context, entries []models.RecommendationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.served[e.ID] = e
	}
	return nil
}

// MarkClicked flags an entry served to userID. Entries served to anyone else
// are reported as missing.
func (s *Store) MarkClicked(_ context.Context, userID, recommendationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.served[recommendationID]
	if !ok || entry.UserID != userID {
		return store.ErrNotFound
	}
	entry.Clicked = true
	s.served[recommendationID] = entry
	return nil
}

// LoggedRecommendation returns a served entry; used by tests.
func (s *Store) LoggedRecommendation(id uuid.UUID) (models.RecommendationLogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.served[id]
	return entry, ok
}

func copyBook(b models.Book) models.Book {
	b.Genres = append([]string(nil), b.Genres...)
	b.Tags = append([]string(nil), b.Tags...)
	return b
}
