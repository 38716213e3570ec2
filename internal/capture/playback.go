package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Playback replays in-memory frames, for tests and offline runs.
type Playback struct {
	frames []*gocv.Mat
	index  int
	loop   bool
	fps    int
	mu     sync.Mutex
	open   bool
}

// NewPlayback creates a Playback over frames. With loop set it restarts at
// the first frame instead of returning ErrEndOfStream.
func NewPlayback(frames []*gocv.Mat, loop bool) *Playback {
	return &Playback{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

func (p *Playback) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
	p.index = 0
	return nil
}

func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}

// ReadFrame returns a clone of the next frame.
func (p *Playback) ReadFrame() (*gocv.Mat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil, ErrSourceNotOpen
	}
	if p.index >= len(p.frames) {
		if !p.loop || len(p.frames) == 0 {
			return nil, ErrEndOfStream
		}
		p.index = 0
	}

	frame := p.frames[p.index].Clone()
	p.index++
	return &frame, nil
}

func (p *Playback) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fps = fps
}

func (p *Playback) FPS() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fps
}

func (p *Playback) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}
