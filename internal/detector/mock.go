package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []*Hand
	index int
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by successive Detect calls. The last
// one repeats once the sequence is exhausted.
func (m *MockDetector) SetHands(hands ...*Hand) {
	m.hands = hands
	m.index = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the next pre-configured hand or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Hand, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.hands) == 0 {
		return nil, nil
	}
	h := m.hands[m.index]
	if m.index < len(m.hands)-1 {
		m.index++
	}
	return h, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
