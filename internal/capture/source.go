// Package capture reads video frames from cameras and files using GoCV
// (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("source is not open")
	// ErrEndOfStream is returned when a finite source has no frames left.
	ErrEndOfStream = errors.New("end of stream")
)

// Source is a stream of BGR frames.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller is responsible for
	// closing the returned Mat.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// videoSource reads frames through a gocv.VideoCapture.
type videoSource struct {
	name   string
	open   func() (*gocv.VideoCapture, error)
	live   bool
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	fps    int
	opened bool
}

// NewCamera creates a Source reading from the camera with the given device ID.
func NewCamera(deviceID int) Source {
	return &videoSource{
		name: fmt.Sprintf("camera %d", deviceID),
		open: func() (*gocv.VideoCapture, error) {
			return gocv.OpenVideoCapture(deviceID)
		},
		live: true,
		fps:  DefaultFPS,
	}
}

// NewVideoFile creates a Source reading the video file at path. It returns
// ErrEndOfStream once the file is exhausted.
func NewVideoFile(path string) Source {
	return &videoSource{
		name: path,
		open: func() (*gocv.VideoCapture, error) {
			return gocv.VideoCaptureFile(path)
		},
		fps: DefaultFPS,
	}
}

// Open opens the underlying capture. Cameras are asked for 640x480 at the
// configured rate.
func (s *videoSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil
	}

	vc, err := s.open()
	if err != nil {
		return fmt.Errorf("open %s: %w", s.name, err)
	}

	if s.live {
		vc.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
		vc.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
		vc.Set(gocv.VideoCaptureFPS, float64(s.fps))
	}

	s.vc = vc
	s.opened = true
	return nil
}

// Close releases the capture.
func (s *videoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened || s.vc == nil {
		s.opened = false
		return nil
	}

	err := s.vc.Close()
	s.vc = nil
	s.opened = false
	return err
}

func (s *videoSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened || s.vc == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.vc.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		if !s.live {
			return nil, ErrEndOfStream
		}
		return nil, fmt.Errorf("failed to read frame from %s", s.name)
	}

	return &mat, nil
}

// SetFPS sets the capture rate. Values less than or equal to 0 are ignored.
func (s *videoSource) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fps = fps
	if s.vc != nil && s.live {
		s.vc.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (s *videoSource) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

func (s *videoSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}
