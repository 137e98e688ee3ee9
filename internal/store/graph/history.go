// Package graph keeps the user-book rating graph in Neo4j and serves rating
// history from it.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/pkg/models"
)

// BookLookup resolves book details for the IDs found in the graph.
type BookLookup interface {
	GetBooks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Book, error)
}

// HistoryStore reads and writes (:User)-[:RATED]->(:Book) relationships.
type HistoryStore struct {
	driver neo4j.DriverWithContext
	books  BookLookup
	logger *logrus.Logger
}

func NewHistoryStore(driver neo4j.DriverWithContext, books BookLookup, logger *logrus.Logger) *HistoryStore {
	return &HistoryStore{
		driver: driver,
		books:  books,
		logger: logger,
	}
}

type ratedEdge struct {
	BookID  uuid.UUID
	Rating  float64
	RatedAt time.Time
}

// RecordRating merges the RATED relationship for one rating.
func (s *HistoryStore) RecordRating(ctx context.Context, rating *models.BookRating) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	cypher := `
		MERGE (u:User {id: $user_id})
		MERGE (b:Book {id: $book_id})
		MERGE (u)-[r:RATED]->(b)
		ON CREATE SET r.rating = $rating, r.rated_at = $rated_at`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, map[string]interface{}{
			"user_id":  rating.UserID.String(),
			"book_id":  rating.BookID.String(),
			"rating":   rating.Rating,
			"rated_at": rating.CreatedAt.UTC(),
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to record rating in graph: %w", err)
	}
	return nil
}

// GetRatingHistory returns the user's rated books, oldest rating first.
func (s *HistoryStore) GetRatingHistory(ctx context.Context, userID uuid.UUID) ([]models.RatedBook, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := `
		MATCH (:User {id: $user_id})-[r:RATED]->(b:Book)
		RETURN b.id AS book_id, r.rating AS rating, r.rated_at AS rated_at
		ORDER BY r.rated_at, b.id`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, map[string]interface{}{
			"user_id": userID.String(),
		})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return edgesFromRecords(records, s.logger), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read rating graph: %w", err)
	}

	edges := result.([]ratedEdge)
	ids := make([]uuid.UUID, len(edges))
	for i, e := range edges {
		ids[i] = e.BookID
	}

	books, err := s.books.GetBooks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rated books: %w", err)
	}
	return joinHistory(edges, books, s.logger), nil
}

func edgesFromRecords(records []*neo4j.Record, logger *logrus.Logger) []ratedEdge {
	edges := make([]ratedEdge, 0, len(records))
	for _, record := range records {
		rawID, _ := record.Get("book_id")
		rawRating, _ := record.Get("rating")
		rawRatedAt, _ := record.Get("rated_at")

		idStr, ok := rawID.(string)
		if !ok {
			continue
		}
		bookID, err := uuid.Parse(idStr)
		if err != nil {
			logger.WithField("book_id", idStr).Warn("Skipping graph edge with malformed book id")
			continue
		}

		var rating float64
		switch v := rawRating.(type) {
		case float64:
			rating = v
		case int64:
			rating = float64(v)
		default:
			continue
		}

		ratedAt, _ := rawRatedAt.(time.Time)
		edges = append(edges, ratedEdge{BookID: bookID, Rating: rating, RatedAt: ratedAt})
	}
	return edges
}

// joinHistory keeps edge order and drops edges whose book no longer exists.
func joinHistory(edges []ratedEdge, books map[uuid.UUID]models.Book, logger *logrus.Logger) []models.RatedBook {
	history := make([]models.RatedBook, 0, len(edges))
	for _, e := range edges {
		book, ok := books[e.BookID]
		if !ok {
			logger.WithField("book_id", e.BookID).Debug("Rated book missing from catalog")
			continue
		}
		history = append(history, models.RatedBook{Book: book, Rating: e.Rating})
	}
	return history
}
