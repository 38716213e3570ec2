// Package app wires capture, segmentation, the shape pipeline and result
// publishing into the running mudra application.
package app

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/orientation"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/shape"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active processing.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
	// DefaultChannel names the single camera channel.
	DefaultChannel = "main"
)

// Publisher receives every computed shape result.
type Publisher interface {
	Publish(res *shape.Result) error
}

// Config holds configuration options for the application.
type Config struct {
	Store *store.Store
	// Source overrides the camera selected by CameraID.
	Source   capture.Source
	CameraID int
	// MotionThresh is the percentage of changed pixels that wakes the
	// pipeline up.
	MotionThresh float64

	Detector detector.Detector
	Shape    shape.Config
	// Poses is the registry results are labeled against. A new empty one
	// is created when nil.
	Poses     *pose.Estimator
	Publisher Publisher

	Channel   string
	Visualize bool
}

// Stats counts what the pipeline has done since it was created.
type Stats struct {
	Frames   int `json:"frames"`
	Skipped  int `json:"skipped"`
	Resolved int `json:"resolved"`
	Errors   int `json:"errors"`
}

// App is the main application that runs hand shape analysis over a frame
// source.
type App struct {
	config    Config
	source    capture.Source
	motion    *capture.MotionGate
	detector  detector.Detector
	poses     *pose.Estimator
	processor *shape.Processor
	publisher Publisher
	enabled   bool
	active    bool
	latest    *shape.Result
	stats     Stats
	mu        sync.RWMutex
	stopCh    chan struct{}
	done      chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Shape.Width <= 0 || config.Shape.Height <= 0 {
		config.Shape = shape.DefaultConfig()
	}
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // 1% pixel change
	}

	a := &App{
		config:    config,
		source:    config.Source,
		motion:    capture.NewMotionGate(motionThreshold, image.Pt(config.Shape.Width, config.Shape.Height)),
		detector:  config.Detector,
		poses:     config.Poses,
		publisher: config.Publisher,
	}
	if a.source == nil {
		a.source = capture.NewCamera(config.CameraID)
	}
	if a.poses == nil {
		a.poses = pose.NewEstimator()
	}
	if a.detector == nil {
		cfg := detector.DefaultConfig()
		cfg.Width, cfg.Height = config.Shape.Width, config.Shape.Height
		d, err := detector.NewThresholdDetector(cfg)
		if err != nil {
			return nil, fmt.Errorf("create detector: %w", err)
		}
		a.detector = d
	}
	a.processor = shape.NewProcessor(config.Channel, config.Shape, a.poses)

	return a, nil
}

// SetEnabled enables or disables processing.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetPublisher sets where results are sent.
func (a *App) SetPublisher(p Publisher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.publisher = p
}

// LoadPoses registers every stored pose model, replacing registered models
// of the same name, and returns how many were loaded.
func (a *App) LoadPoses() (int, error) {
	if a.config.Store == nil {
		return 0, nil
	}

	poses, err := a.config.Store.Poses().List()
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, p := range poses {
		m := p.Model
		if err := a.poses.Add(&m); err != nil {
			log.Printf("Failed to load pose %s: %v", p.Name, err)
			continue
		}
		loaded++
	}

	log.Printf("Loaded %d poses from database", loaded)
	return loaded, nil
}

// ProcessFrame segments one frame, computes its shape result and publishes
// it. A frame without a hand still produces an unresolved result so the
// hand state is reset and clients see the hand go away.
func (a *App) ProcessFrame(frame *gocv.Mat) (*shape.Result, error) {
	a.mu.RLock()
	d, pub := a.detector, a.publisher
	a.mu.RUnlock()

	if d == nil {
		return nil, errors.New("no detector configured")
	}

	hand, err := d.Detect(frame)
	if err != nil {
		a.count(nil, err)
		return nil, fmt.Errorf("detect hand: %w", err)
	}

	var f shape.Frame
	token := ""
	if hand != nil {
		f = shape.Frame{Blobs: hand.Blobs, Bounds: hand.Bounds}
		token = hand.Token
	}

	fc := orientation.NewFrameContext(a.config.Channel)
	res, err := a.processor.Compute(f, token, fc, a.config.Visualize)
	a.count(res, err)
	if err != nil {
		return nil, err
	}

	if pub != nil {
		if err := pub.Publish(res); err != nil {
			log.Printf("Error publishing result: %v", err)
		}
	}
	return res, nil
}

func (a *App) count(res *shape.Result, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Frames++
	if err != nil {
		a.stats.Errors++
		return
	}
	if res.Resolved {
		a.stats.Resolved++
	}
	a.latest = res
}

// Start opens the source and begins the processing pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.source.Open(); err != nil {
		return err
	}

	// Set initial FPS to idle mode
	a.source.SetFPS(IdleFPS)
	a.active = false
	a.motion.Reset()

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Println("Shape pipeline started")
	return nil
}

// Stop halts the pipeline and releases the source. It waits for the
// pipeline loop to return.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if err := a.source.Close(); err != nil {
		log.Printf("Error closing source: %v", err)
	}

	log.Println("Shape pipeline stopped")
}

// Close stops the pipeline and releases the detector and motion gate.
func (a *App) Close() error {
	a.Stop()
	a.motion.Close()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detector != nil {
		return a.detector.Close()
	}
	return nil
}

// Done returns a channel closed when the running pipeline exits, or nil
// when it is not running.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Source returns the frame source.
func (a *App) Source() capture.Source {
	return a.source
}

// Poses returns the pose registry.
func (a *App) Poses() *pose.Estimator {
	return a.poses
}

// Processor returns the shape processor.
func (a *App) Processor() *shape.Processor {
	return a.processor
}

// Latest returns the most recent result, or nil.
func (a *App) Latest() *shape.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// Stats returns a snapshot of the pipeline counters.
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// IsActive reports whether the pipeline is in active mode.
func (a *App) IsActive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

func (a *App) setActive(active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = active
}

func (a *App) skip() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.Skipped++
}

func idleTimeout() time.Duration {
	return time.Duration(IdleTimeoutMs) * time.Millisecond
}
