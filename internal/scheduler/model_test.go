package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dogebooch/doughub/internal/card"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	model, err := NewModel(ModelConfig{})
	require.NoError(t, err)
	return model
}

func TestValidateParameters(t *testing.T) {
	assert.NoError(t, ValidateParameters(DefaultParameters))

	bad := DefaultParameters
	bad[4] = 0.5 // below the 1.0 lower bound
	assert.Error(t, ValidateParameters(bad))

	bad = DefaultParameters
	bad[20] = 2.0 // above the 0.8 upper bound
	assert.Error(t, ValidateParameters(bad))
}

func TestNewModel_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ModelConfig
		wantErr bool
	}{
		{name: "zero config uses defaults"},
		{name: "explicit retention", cfg: ModelConfig{DesiredRetention: 0.85}},
		{name: "retention above one", cfg: ModelConfig{DesiredRetention: 1.5}, wantErr: true},
		{name: "negative maximum interval", cfg: ModelConfig{MaximumIntervalDays: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestModel_Predict_FirstReview(t *testing.T) {
	model := newTestModel(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := card.Card{ReviewState: card.ReviewStateNew}

	for _, rating := range AllRatings {
		p := model.Predict(c, rating, now)
		assert.Greater(t, p.Stability, 0.0, "rating %s initializes stability", rating)
		assert.GreaterOrEqual(t, p.Difficulty, 1.0, "rating %s", rating)
		assert.LessOrEqual(t, p.Difficulty, 10.0, "rating %s", rating)
	}

	// Good on a new card advances to the second learning step.
	good := model.Predict(c, Good, now)
	assert.Equal(t, card.ReviewStateLearning, good.State)
	require.NotNil(t, good.Step)
	assert.Equal(t, 1, *good.Step)
	assert.InDelta(t, 10.0/(24*60), good.ScheduledDays, 1e-9, "second step is ten minutes")

	// Easy graduates immediately to review.
	easy := model.Predict(c, Easy, now)
	assert.Equal(t, card.ReviewStateReview, easy.State)
	assert.Nil(t, easy.Step)
	assert.GreaterOrEqual(t, easy.ScheduledDays, 1.0)
}

func TestModel_Predict_LearningProgression(t *testing.T) {
	model := newTestModel(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lastReview := now.Add(-10 * time.Minute)

	c := card.Card{
		ReviewState:  card.ReviewStateLearning,
		LearningStep: intPtr(1),
		Stability:    2.0,
		Difficulty:   5.0,
		LastReview:   &lastReview,
	}

	again := model.Predict(c, Again, now)
	assert.Equal(t, card.ReviewStateLearning, again.State)
	require.NotNil(t, again.Step)
	assert.Equal(t, 0, *again.Step, "again resets to the first step")

	good := model.Predict(c, Good, now)
	assert.Equal(t, card.ReviewStateReview, good.State, "good on the last step graduates")
	assert.Nil(t, good.Step)
}

func TestModel_Predict_ReviewState(t *testing.T) {
	model := newTestModel(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lastReview := now.Add(-5 * 24 * time.Hour)

	c := card.Card{
		ReviewState: card.ReviewStateReview,
		Stability:   5.0,
		Difficulty:  5.0,
		LastReview:  &lastReview,
	}

	again := model.Predict(c, Again, now)
	assert.Equal(t, card.ReviewStateRelearning, again.State)
	require.NotNil(t, again.Step)
	assert.Equal(t, 0, *again.Step)
	assert.Less(t, again.Stability, c.Stability, "a lapse shrinks stability")

	good := model.Predict(c, Good, now)
	assert.Equal(t, card.ReviewStateReview, good.State)
	assert.Greater(t, good.Stability, c.Stability, "recall grows stability")

	// Intervals order with rating quality.
	hard := model.Predict(c, Hard, now)
	easy := model.Predict(c, Easy, now)
	assert.LessOrEqual(t, hard.ScheduledDays, good.ScheduledDays)
	assert.LessOrEqual(t, good.ScheduledDays, easy.ScheduledDays)

	// Difficulty moves opposite to rating quality.
	assert.Greater(t, again.Difficulty, good.Difficulty)
	assert.Less(t, easy.Difficulty, good.Difficulty)
}

func TestModel_Predict_Deterministic(t *testing.T) {
	model := newTestModel(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lastReview := now.Add(-72 * time.Hour)

	c := card.Card{
		ReviewState: card.ReviewStateReview,
		Stability:   12.5,
		Difficulty:  6.3,
		LastReview:  &lastReview,
	}

	first := model.Forecast(c, now)
	second := model.Forecast(c, now)
	assert.Equal(t, first, second)
}

func TestModel_Predict_MaximumIntervalClamp(t *testing.T) {
	model, err := NewModel(ModelConfig{MaximumIntervalDays: 30})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lastReview := now.Add(-100 * 24 * time.Hour)
	c := card.Card{
		ReviewState: card.ReviewStateReview,
		Stability:   5000,
		Difficulty:  2.0,
		LastReview:  &lastReview,
	}

	p := model.Predict(c, Easy, now)
	assert.LessOrEqual(t, p.ScheduledDays, 30.0)
}

func TestModel_Retrievability(t *testing.T) {
	model := newTestModel(t)

	assert.Equal(t, 0.0, model.Retrievability(10, 0))
	assert.InDelta(t, 1.0, model.Retrievability(0, 10), 1e-9)
	assert.InDelta(t, 0.9, model.Retrievability(10, 10), 1e-6, "retrievability is 90%% when elapsed equals stability")

	// Monotonically decreasing in elapsed time.
	assert.Greater(t, model.Retrievability(1, 10), model.Retrievability(20, 10))
}
