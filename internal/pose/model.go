// Package pose labels a normalized hand contour by aligning it with
// canonical pose models through dynamic time warping.
package pose

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidModel is returned when a pose model is malformed.
var ErrInvalidModel = errors.New("invalid pose model")

// LabelRange assigns Label to the model points From..To, both inclusive.
type LabelRange struct {
	Label string `json:"label"`
	From  int    `json:"from"`
	To    int    `json:"to"`
}

// Model is a canonical labeled contour of one hand pose. Points live in the
// same canonical box contours are normalized onto. Models are immutable once
// registered.
type Model struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Points []image.Point `json:"points"`
	Labels []LabelRange  `json:"labels"`
}

// Validate checks that the model has a name and points and that its label
// ranges are non-empty, start at 0, follow each other without gaps or
// overlaps and stay inside the point list.
func (m *Model) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidModel)
	}
	if len(m.Points) == 0 {
		return fmt.Errorf("%w: %s has no points", ErrInvalidModel, m.Name)
	}
	if len(m.Labels) == 0 {
		return fmt.Errorf("%w: %s has no labels", ErrInvalidModel, m.Name)
	}

	next := 0
	for i, r := range m.Labels {
		if r.Label == "" {
			return fmt.Errorf("%w: %s range %d has no label", ErrInvalidModel, m.Name, i)
		}
		if r.From != next {
			return fmt.Errorf("%w: %s range %q starts at %d, want %d", ErrInvalidModel, m.Name, r.Label, r.From, next)
		}
		if r.To < r.From {
			return fmt.Errorf("%w: %s range %q ends before it starts", ErrInvalidModel, m.Name, r.Label)
		}
		if r.To >= len(m.Points) {
			return fmt.Errorf("%w: %s range %q ends at %d past %d points", ErrInvalidModel, m.Name, r.Label, r.To, len(m.Points))
		}
		next = r.To + 1
	}
	return nil
}

// Span returns the number of model points covered by a label.
func (m *Model) Span() int {
	if len(m.Labels) == 0 {
		return 0
	}
	return m.Labels[len(m.Labels)-1].To + 1
}

// labelTable maps each covered model index to the index of its range.
func (m *Model) labelTable() []int {
	table := make([]int, 0, m.Span())
	for i, r := range m.Labels {
		for k := r.From; k <= r.To; k++ {
			table = append(table, i)
		}
	}
	return table
}
