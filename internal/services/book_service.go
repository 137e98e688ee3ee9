package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/recommend"
	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

const (
	defaultBookPageSize = 20
	maxBookPageSize     = 100
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrAlreadyRated = errors.New("user has already rated this book")
	ErrInvalidBook  = errors.New("invalid book")
)

// BookService manages the catalog and turns ratings into preference updates.
type BookService struct {
	books      BookRepository
	ratings    RatingRepository
	prefsCache PreferenceInvalidator
	engine     Recommender
	cache      *RecommendationCache
	events     *RatingEventHandler
	publisher  RatingPublisher
	metrics    *MetricsCollector
	logger     *logrus.Logger
	userLocks  *keyedMutex
}

func NewBookService(
	books BookRepository,
	ratings RatingRepository,
	prefsCache PreferenceInvalidator,
	engine Recommender,
	cache *RecommendationCache,
	events *RatingEventHandler,
	publisher RatingPublisher,
	metrics *MetricsCollector,
	logger *logrus.Logger,
) *BookService {
	return &BookService{
		books:      books,
		ratings:    ratings,
		prefsCache: prefsCache,
		engine:     engine,
		cache:      cache,
		events:     events,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		userLocks:  newKeyedMutex(),
	}
}

func (s *BookService) CreateBook(ctx context.Context, createdBy uuid.UUID, req *models.CreateBookRequest) (*models.Book, error) {
	genres := store.NormalizeGenres(req.Genres)
	if len(genres) == 0 {
		return nil, fmt.Errorf("%w: at least one genre is required", ErrInvalidBook)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	book := &models.Book{
		ID:              uuid.New(),
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Description:     req.Description,
		Genres:          genres,
		Tags:            tags,
		PublicationYear: req.PublicationYear,
		Publisher:       req.Publisher,
		Language:        req.Language,
		PageCount:       req.PageCount,
		CoverImageURL:   req.CoverImageURL,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"book_id":    book.ID,
		"title":      book.Title,
		"created_by": createdBy,
	}).Info("Book created")

	return book, nil
}

func (s *BookService) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	return book, nil
}

func (s *BookService) ListBooks(ctx context.Context, query models.BookListQuery) (*models.BookListResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultBookPageSize
	}
	if limit > maxBookPageSize {
		limit = maxBookPageSize
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	genre := ""
	if normalized := store.NormalizeGenres([]string{query.Genre}); len(normalized) == 1 {
		genre = normalized[0]
	}

	books, err := s.books.ListBooks(ctx, genre, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	return &models.BookListResponse{
		Books:  books,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// RateBook records a user's first and only rating of a book, folds it into the
// book's statistics and the user's learned preferences, and announces it.
func (s *BookService) RateBook(ctx context.Context, userID, bookID uuid.UUID, req *models.RateBookRequest) (*models.RateBookResponse, error) {
	if userID == uuid.Nil {
		return nil, recommend.ErrInvalidUser
	}
	if err := recommend.ValidateRating(req.Rating); err != nil {
		return nil, err
	}

	rating := &models.BookRating{
		ID:        uuid.New(),
		BookID:    bookID,
		UserID:    userID,
		Rating:    req.Rating,
		Review:    req.Review,
		CreatedAt: time.Now(),
	}

	// A user with no learned rows yet has nothing for the row lock to hold, so
	// ratings by one user are still serialized here.
	unlock := s.userLocks.Lock(userID)
	book, prefs, err := s.applyRating(ctx, rating)
	unlock()
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRating()

	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate cached recommendations")
	}

	event := models.RatingEvent{
		EventID:   rating.ID,
		UserID:    userID,
		BookID:    bookID,
		Rating:    rating.Rating,
		Genres:    book.Genres,
		Timestamp: rating.CreatedAt,
	}
	s.announce(ctx, event)

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"book_id": bookID,
		"rating":  rating.Rating,
	}).Info("Book rated")

	return &models.RateBookResponse{
		Rating:      *rating,
		Book:        *book,
		Preferences: prefs,
	}, nil
}

// applyRating saves the rating, the book statistics and the user's learned
// preferences as one unit. A failed preference update leaves no rating behind.
func (s *BookService) applyRating(ctx context.Context, rating *models.BookRating) (*models.Book, models.PreferenceMap, error) {
	learn := func(book models.Book, current models.PreferenceMap) (models.PreferenceMap, error) {
		return s.engine.ApplyRating(current, book, rating.Rating)
	}

	book, prefs, err := s.ratings.SaveRating(ctx, rating, learn)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, nil, ErrBookNotFound
		case errors.Is(err, store.ErrConflict):
			return nil, nil, ErrAlreadyRated
		default:
			return nil, nil, fmt.Errorf("failed to save rating: %w", err)
		}
	}

	if s.prefsCache != nil {
		if err := s.prefsCache.Invalidate(ctx, rating.UserID); err != nil {
			s.logger.WithError(err).WithField("user_id", rating.UserID).Warn("Failed to invalidate cached preferences")
		}
	}
	return book, prefs, nil
}

// announce publishes the rating when a stream is configured and otherwise
// applies the downstream effects in-process.
func (s *BookService) announce(ctx context.Context, event models.RatingEvent) {
	if s.publisher != nil {
		err := s.publisher.PublishRating(ctx, event)
		if err == nil {
			return
		}
		s.logger.WithError(err).WithField("event_id", event.EventID).Warn("Falling back to in-process rating handling")
	}

	if err := s.events.Handle(ctx, event); err != nil {
		s.logger.WithError(err).WithField("event_id", event.EventID).Warn("Rating side effects failed")
	}
}
