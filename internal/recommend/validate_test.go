package recommend

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	userID := uuid.New()
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name     string
		userID   uuid.UUID
		limit    *int
		expected int
		err      error
	}{
		{name: "default limit", userID: userID, limit: nil, expected: 10},
		{name: "passes through", userID: userID, limit: intPtr(25), expected: 25},
		{name: "upper bound kept", userID: userID, limit: intPtr(100), expected: 100},
		{name: "clamped to max", userID: userID, limit: intPtr(150), expected: 100},
		{name: "minimum", userID: userID, limit: intPtr(1), expected: 1},
		{name: "zero limit", userID: userID, limit: intPtr(0), err: ErrInvalidLimit},
		{name: "negative limit", userID: userID, limit: intPtr(-3), err: ErrInvalidLimit},
		{name: "nil user", userID: uuid.Nil, limit: intPtr(5), err: ErrInvalidUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, err := Validate(tt.userID, tt.limit)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, limit)
		})
	}
}

func TestValidateRating(t *testing.T) {
	for _, r := range []float64{1, 2.5, 5} {
		assert.NoError(t, ValidateRating(r), "rating %v", r)
	}
	for _, r := range []float64{0, 0.99, 5.01, -1, math.NaN()} {
		assert.ErrorIs(t, ValidateRating(r), ErrInvalidRating, "rating %v", r)
	}
}
