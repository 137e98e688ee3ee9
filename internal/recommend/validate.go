package recommend

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	ErrInvalidUser   = errors.New("invalid user ID")
	ErrInvalidLimit  = errors.New("limit must be greater than 0")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Validate checks the caller-supplied parameters of a recommendation request
// and returns the effective limit. A nil limit selects DefaultLimit and limits
// above MaxLimit are clamped.
func Validate(userID uuid.UUID, limit *int) (int, error) {
	if userID == uuid.Nil {
		return 0, ErrInvalidUser
	}

	if limit == nil {
		return DefaultLimit, nil
	}

	switch l := *limit; {
	case l <= 0:
		return 0, ErrInvalidLimit
	case l > MaxLimit:
		return MaxLimit, nil
	default:
		return l, nil
	}
}

// ValidateRating rejects ratings outside the 1..5 scale.
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}
