package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordRecommendationRequest("success", true, 10*time.Millisecond)
	m.RecordRecommendationRequest("success", false, 20*time.Millisecond)
	m.RecordRecommendationRequest("invalid", false, time.Millisecond)
	m.RecordRating()
	m.RecordStatedPreferenceUpdate()
	m.RecordClick()
	m.RecordScores([]float64{0.2, 0.9})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendationRequests.WithLabelValues("success", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendationRequests.WithLabelValues("success", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendationRequests.WithLabelValues("invalid", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ratingsRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.preferenceUpdates.WithLabelValues("learned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.preferenceUpdates.WithLabelValues("stated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendationClicks))

	count, err := testutil.GatherAndCount(m.Registry(), "recommendation_score")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
