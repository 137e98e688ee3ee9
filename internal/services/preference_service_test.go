package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/bookrec/internal/recommend"
	"github.com/temcen/bookrec/internal/store/memory"
	"github.com/temcen/bookrec/pkg/models"
)

func TestPreferenceService_UpdateStatedPreferences(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mem := memory.New()
	recCache, _ := newTestCache(t)
	service := NewPreferenceService(mem, mem, recCache, NewMetricsCollector(), testLogger())

	recCache.Set(ctx, userID, 10, false, &models.RecommendationResponse{UserID: userID})

	resp, err := service.UpdateStatedPreferences(ctx, userID, []string{" Fantasy", "Mystery", "Fantasy", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"Fantasy", "Mystery"}, resp.Stated)
	assert.Empty(t, resp.Learned)

	_, hit := recCache.Get(ctx, userID, 10, false)
	assert.False(t, hit, "stated preference change must drop cached lists")

	resp, err = service.UpdateStatedPreferences(ctx, userID, []string{"Horror"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Horror"}, resp.Stated)
}

func TestPreferenceService_UpdateStatedPreferencesValidation(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	service := NewPreferenceService(mem, mem, nil, NewMetricsCollector(), testLogger())

	tooMany := make([]string, maxStatedPreferences+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("Genre %d", i)
	}

	tests := []struct {
		name   string
		userID uuid.UUID
		genres []string
		want   error
	}{
		{name: "nil user", userID: uuid.Nil, genres: []string{"Fantasy"}, want: recommend.ErrInvalidUser},
		{name: "empty list", userID: uuid.New(), genres: nil, want: ErrInvalidPreferences},
		{name: "only blanks", userID: uuid.New(), genres: []string{" ", ""}, want: ErrInvalidPreferences},
		{name: "too many", userID: uuid.New(), genres: tooMany, want: ErrInvalidPreferences},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.UpdateStatedPreferences(ctx, tt.userID, tt.genres)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// Duplicates collapse before the count is checked.
	dupes := append(tooMany[:maxStatedPreferences:maxStatedPreferences], tooMany[0])
	resp, err := service.UpdateStatedPreferences(ctx, uuid.New(), dupes)
	require.NoError(t, err)
	assert.Len(t, resp.Stated, maxStatedPreferences)
}

func TestPreferenceService_GetPreferences(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mem := memory.New()
	service := NewPreferenceService(mem, mem, nil, NewMetricsCollector(), testLogger())

	resp, err := service.GetPreferences(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, resp.Stated)
	assert.NotNil(t, resp.Learned)

	mem.SetLearned(userID, models.PreferenceMap{"Fantasy": 0.8})
	resp, err = service.GetPreferences(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.PreferenceMap{"Fantasy": 0.8}, resp.Learned)

	resp.Learned["Fantasy"] = 0.1
	stored, err := mem.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0.8, stored["Fantasy"])

	_, err = service.GetPreferences(ctx, uuid.Nil)
	assert.ErrorIs(t, err, recommend.ErrInvalidUser)
}
