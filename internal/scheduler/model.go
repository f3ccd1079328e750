// Package scheduler implements the forgetting model and the review scheduler
// that applies it to cards.
package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/Dogebooch/doughub/internal/card"
)

// DefaultParameters are the FSRS v6 default parameter values.
var DefaultParameters = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956,
	6.4133, 0.8334, 3.0194, 0.001,
	1.8722, 0.1666, 0.796, 1.4835,
	0.0614, 0.2629, 1.6483, 0.6014,
	1.8729, 0.5425, 0.0912, 0.0658,
	0.1542,
}

// lowerBounds and upperBounds define the allowed range for each parameter.
var (
	lowerBounds = [21]float64{
		0.001, 0.001, 0.001, 0.001,
		1.0, 0.001, 0.001, 0.001,
		0.0, 0.0, 0.001, 0.001,
		0.001, 0.001, 0.0, 0.0,
		1.0, 0.0, 0.0, 0.0,
		0.1,
	}
	upperBounds = [21]float64{
		100.0, 100.0, 100.0, 100.0,
		10.0, 4.0, 4.0, 0.75,
		4.5, 0.8, 3.5, 5.0,
		0.25, 0.9, 4.0, 1.0,
		6.0, 2.0, 2.0, 0.8,
		0.8,
	}
)

// ValidateParameters checks that all 21 parameters are within bounds.
func ValidateParameters(p [21]float64) error {
	for i := 0; i < 21; i++ {
		if p[i] < lowerBounds[i] || p[i] > upperBounds[i] {
			return fmt.Errorf("model parameter w[%d] = %f outside bounds [%f, %f]",
				i, p[i], lowerBounds[i], upperBounds[i])
		}
	}
	return nil
}

// ModelConfig configures a Model. Zero values produce sensible defaults.
type ModelConfig struct {
	Parameters          [21]float64     // zero → DefaultParameters
	DesiredRetention    float64         // zero → 0.9
	LearningSteps       []time.Duration // nil → [1m, 10m]
	RelearningSteps     []time.Duration // nil → [10m]
	MaximumIntervalDays int             // zero → 36500
}

// Model is the pure forgetting model: given a card state and a review time it
// predicts the post-review state for each rating. It performs no I/O and no
// randomness, so the same inputs always produce the same outputs.
type Model struct {
	w               [21]float64
	decay           float64
	factor          float64
	retention       float64
	learningSteps   []time.Duration
	relearningSteps []time.Duration
	maximumInterval int
}

// NewModel creates a Model from the given config.
func NewModel(cfg ModelConfig) (*Model, error) {
	params := cfg.Parameters
	if params == [21]float64{} {
		params = DefaultParameters
	}
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}

	retention := cfg.DesiredRetention
	if retention == 0 {
		retention = 0.9
	}
	if retention < 0 || retention > 1 {
		return nil, fmt.Errorf("desired retention %f out of range (0, 1]", retention)
	}

	maxIvl := cfg.MaximumIntervalDays
	if maxIvl == 0 {
		maxIvl = 36500
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("maximum interval %d must be positive", maxIvl)
	}

	learningSteps := cfg.LearningSteps
	if learningSteps == nil {
		learningSteps = []time.Duration{time.Minute, 10 * time.Minute}
	}
	relearningSteps := cfg.RelearningSteps
	if relearningSteps == nil {
		relearningSteps = []time.Duration{10 * time.Minute}
	}

	decay := -params[20]
	return &Model{
		w:               params,
		decay:           decay,
		factor:          math.Pow(0.9, 1.0/decay) - 1.0,
		retention:       retention,
		learningSteps:   learningSteps,
		relearningSteps: relearningSteps,
		maximumInterval: maxIvl,
	}, nil
}

// Prediction is the predicted post-review card state for one rating.
type Prediction struct {
	Stability     float64
	Difficulty    float64
	ScheduledDays float64
	State         card.ReviewState
	Step          *int
}

// Forecast predicts the outcome of reviewing the card at now for each of the
// four ratings. A brand-new card is initialized with model defaults first.
func (m *Model) Forecast(c card.Card, now time.Time) map[Rating]Prediction {
	result := make(map[Rating]Prediction, len(AllRatings))
	for _, r := range AllRatings {
		result[r] = m.Predict(c, r, now)
	}
	return result
}

// Predict computes the post-review state of the card for a single rating.
func (m *Model) Predict(c card.Card, rating Rating, now time.Time) Prediction {
	var elapsedDays float64
	if c.LastReview != nil {
		elapsedDays = now.Sub(*c.LastReview).Hours() / 24.0
	}

	p := Prediction{State: c.ReviewState, Step: cloneStep(c.LearningStep)}

	// Update memory parameters.
	if c.Stability == 0 {
		// First review: initialize S and D.
		p.Stability = clampS(m.w[rating-1])
		p.Difficulty = m.initDifficulty(rating, true)
	} else {
		if elapsedDays < 1 {
			p.Stability = m.shortTermStability(c.Stability, rating)
		} else {
			r := m.Retrievability(elapsedDays, c.Stability)
			p.Stability = m.nextStability(c.Difficulty, c.Stability, r, rating)
		}
		p.Difficulty = m.nextDifficulty(c.Difficulty, rating)
	}

	// A card that has never been reviewed enters the learning steps.
	if p.State == card.ReviewStateNew {
		p.State = card.ReviewStateLearning
		p.Step = intPtr(0)
	}

	// State transition and interval.
	var interval time.Duration
	switch p.State {
	case card.ReviewStateLearning:
		interval = m.transitionLearning(&p, rating, m.learningSteps)
	case card.ReviewStateRelearning:
		interval = m.transitionLearning(&p, rating, m.relearningSteps)
	default:
		interval = m.transitionReview(&p, rating)
	}

	p.ScheduledDays = interval.Hours() / 24.0
	return p
}

// Retrievability computes R(t, S) = (1 + FACTOR * t / S) ^ DECAY.
func (m *Model) Retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return math.Pow(1+m.factor*elapsedDays/stability, m.decay)
}

// nextIntervalDays computes the next review interval in whole days,
// clamped to [1, maximumInterval].
func (m *Model) nextIntervalDays(stability float64) int {
	ivl := stability / m.factor * (math.Pow(m.retention, 1.0/m.decay) - 1)
	rounded := int(math.Round(ivl))
	if rounded < 1 {
		rounded = 1
	}
	if rounded > m.maximumInterval {
		rounded = m.maximumInterval
	}
	return rounded
}

func (m *Model) initDifficulty(rating Rating, clamp bool) float64 {
	d := m.w[4] - math.Exp(m.w[5]*float64(rating-1)) + 1
	if clamp {
		return clampD(d)
	}
	return d
}

// shortTermStability computes the same-day review stability.
func (m *Model) shortTermStability(stability float64, rating Rating) float64 {
	sInc := math.Exp(m.w[17]*(float64(rating)-3+m.w[18])) * math.Pow(stability, -m.w[19])
	if rating == Good || rating == Easy {
		sInc = math.Max(sInc, 1.0)
	}
	return clampS(stability * sInc)
}

// nextDifficulty applies linear damping and mean reversion toward D₀(Easy).
func (m *Model) nextDifficulty(difficulty float64, rating Rating) float64 {
	deltaD := -m.w[6] * (float64(rating) - 3)
	dPrime := difficulty + (10-difficulty)*deltaD/9
	d0Easy := m.initDifficulty(Easy, false)
	return clampD(m.w[7]*d0Easy + (1-m.w[7])*dPrime)
}

func (m *Model) nextStability(d, s, r float64, rating Rating) float64 {
	if rating == Again {
		return m.nextForgetStability(d, s, r)
	}
	return m.nextRecallStability(d, s, r, rating)
}

func (m *Model) nextRecallStability(d, s, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = m.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = m.w[16]
	}
	return clampS(s * (1 + math.Exp(m.w[8])*
		(11-d)*
		math.Pow(s, -m.w[9])*
		(math.Exp((1-r)*m.w[10])-1)*
		hardPenalty*easyBonus))
}

func (m *Model) nextForgetStability(d, s, r float64) float64 {
	long := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-r)*m.w[14])
	short := s / math.Exp(m.w[17]*m.w[18])
	return clampS(math.Min(long, short))
}

// transitionLearning handles learning and relearning transitions.
func (m *Model) transitionLearning(p *Prediction, rating Rating, steps []time.Duration) time.Duration {
	step := 0
	if p.Step != nil {
		step = *p.Step
	}

	if len(steps) == 0 || (step >= len(steps) && rating != Again) {
		return m.graduate(p)
	}

	switch rating {
	case Again:
		p.Step = intPtr(0)
		return steps[0]

	case Hard:
		if step == 0 && len(steps) == 1 {
			return time.Duration(float64(steps[0]) * 1.5)
		}
		if step == 0 && len(steps) >= 2 {
			return (steps[0] + steps[1]) / 2
		}
		return steps[step]

	case Good:
		nextStep := step + 1
		if nextStep >= len(steps) {
			return m.graduate(p)
		}
		p.Step = intPtr(nextStep)
		return steps[nextStep]

	default:
		return m.graduate(p)
	}
}

// transitionReview handles transitions out of the review state.
func (m *Model) transitionReview(p *Prediction, rating Rating) time.Duration {
	if rating == Again && len(m.relearningSteps) > 0 {
		p.State = card.ReviewStateRelearning
		p.Step = intPtr(0)
		return m.relearningSteps[0]
	}

	p.Step = nil
	return time.Duration(m.nextIntervalDays(p.Stability)) * 24 * time.Hour
}

func (m *Model) graduate(p *Prediction) time.Duration {
	p.State = card.ReviewStateReview
	p.Step = nil
	return time.Duration(m.nextIntervalDays(p.Stability)) * 24 * time.Hour
}

func clampS(s float64) float64 {
	return math.Max(s, 0.001)
}

func clampD(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}

func intPtr(v int) *int {
	return &v
}

func cloneStep(step *int) *int {
	if step == nil {
		return nil
	}
	v := *step
	return &v
}
