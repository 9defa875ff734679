package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"PredictionTradeBot/internal/models"
)

func intPtr(v int) *int { return &v }

func TestClassifyUnknownOnMissingInputs(t *testing.T) {
	c := NewClassifier()

	assert.Equal(t, models.RegimeUnknown, c.Classify(models.IndicatorSnapshot{}))
	assert.Equal(t, models.RegimeUnknown, c.Classify(models.IndicatorSnapshot{
		VWAP: models.Float64(100),
	}))
}

func TestClassifyLabels(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		snap models.IndicatorSnapshot
		want models.RegimeLabel
	}{
		{
			name: "trending up",
			snap: models.IndicatorSnapshot{
				VWAP:          models.Float64(100),
				VWAPSlope:     models.Float64(0.05),
				VWAPDistance:  models.Float64(0.002),
				CrossCount:    intPtr(1),
				RecentVolume:  10,
				AverageVolume: 10,
			},
			want: models.RegimeTrendingUp,
		},
		{
			name: "trending down",
			snap: models.IndicatorSnapshot{
				VWAP:          models.Float64(100),
				VWAPSlope:     models.Float64(-0.05),
				VWAPDistance:  models.Float64(-0.002),
				CrossCount:    intPtr(1),
				RecentVolume:  10,
				AverageVolume: 10,
			},
			want: models.RegimeTrendingDown,
		},
		{
			name: "choppy by cross count",
			snap: models.IndicatorSnapshot{
				VWAP:         models.Float64(100),
				VWAPSlope:    models.Float64(0.05),
				VWAPDistance: models.Float64(0.002),
				CrossCount:   intPtr(6),
			},
			want: models.RegimeChoppy,
		},
		{
			name: "choppy by active volume without trend",
			snap: models.IndicatorSnapshot{
				VWAP:          models.Float64(100),
				VWAPSlope:     models.Float64(0),
				VWAPDistance:  models.Float64(0.001),
				CrossCount:    intPtr(2),
				RecentVolume:  20,
				AverageVolume: 10,
			},
			want: models.RegimeChoppy,
		},
		{
			name: "ranging on a quiet flat tape",
			snap: models.IndicatorSnapshot{
				VWAP:          models.Float64(100),
				VWAPSlope:     models.Float64(0),
				VWAPDistance:  models.Float64(0.0001),
				CrossCount:    intPtr(2),
				RecentVolume:  8,
				AverageVolume: 10,
			},
			want: models.RegimeRanging,
		},
		{
			name: "slope against position is not a trend",
			snap: models.IndicatorSnapshot{
				VWAP:          models.Float64(100),
				VWAPSlope:     models.Float64(0.05),
				VWAPDistance:  models.Float64(-0.002),
				CrossCount:    intPtr(1),
				RecentVolume:  5,
				AverageVolume: 10,
			},
			want: models.RegimeRanging,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.snap))
		})
	}
}

func TestClassifyMissingCrossCountStillClassifies(t *testing.T) {
	c := NewClassifier()

	got := c.Classify(models.IndicatorSnapshot{
		VWAP:         models.Float64(100),
		VWAPSlope:    models.Float64(0.05),
		VWAPDistance: models.Float64(0.002),
	})
	assert.Equal(t, models.RegimeTrendingUp, got)
}
