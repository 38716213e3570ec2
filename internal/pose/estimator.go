package pose

import (
	"image"
	"math"
	"sort"
	"sync"
)

// Match is the distance of a contour to one model.
type Match struct {
	Model    *Model
	Score    float64
	Distance float64
}

// Estimator picks the pose model closest to a contour.
// It is safe for concurrent use.
type Estimator struct {
	mu     sync.RWMutex
	models []*Model
}

// NewEstimator creates an Estimator with no models.
func NewEstimator() *Estimator {
	return &Estimator{
		models: make([]*Model, 0),
	}
}

// Add validates m and registers it, replacing a model with the same name.
func (e *Estimator) Add(m *Model) error {
	if err := m.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existing := range e.models {
		if existing.Name == m.Name {
			e.models[i] = m
			return nil
		}
	}
	e.models = append(e.models, m)
	return nil
}

// Remove unregisters the model called name.
func (e *Estimator) Remove(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, m := range e.models {
		if m.Name == name {
			e.models = append(e.models[:i], e.models[i+1:]...)
			return
		}
	}
}

// Models returns the registered models in registration order.
func (e *Estimator) Models() []*Model {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Model, len(e.models))
	copy(out, e.models)
	return out
}

// Match scores contour against every model.
// Returns matches sorted by score in descending order (best matches first).
func (e *Estimator) Match(contour []image.Point) []Match {
	if len(contour) == 0 {
		return nil
	}

	var matches []Match
	for _, m := range e.Models() {
		distance := Distance(m.Points, contour)
		if math.IsInf(distance, 1) {
			continue
		}
		matches = append(matches, Match{
			Model:    m,
			Score:    1.0 / (1.0 + distance),
			Distance: distance,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Best returns the closest model. ok is false when no model is registered
// or contour is empty.
func (e *Estimator) Best(contour []image.Point) (Match, bool) {
	matches := e.Match(contour)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}
