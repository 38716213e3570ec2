package app

import (
	"errors"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/capture"
)

// runPipeline is the main loop that processes frames from the source.
// It manages the state transitions between idle and active modes based on
// motion.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS)
// 2. On motion, switch to active mode (ActiveFPS)
// 3. While active, segment every frame and compute its shape result
// 4. After IdleTimeoutMs without motion, switch back to idle mode
//
// The loop exits when stopCh closes or a finite source runs out of frames.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.source.ReadFrame()
			if errors.Is(err, capture.ErrEndOfStream) {
				log.Println("Source exhausted, pipeline exiting")
				return
			}
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			moved, _ := a.motion.Pass(frame)
			if moved {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.setActive(true)
					a.source.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode && time.Since(lastMotionTime) > idleTimeout() {
				activeMode = false
				a.setActive(false)
				a.source.SetFPS(IdleFPS)
				frameInterval = time.Second / time.Duration(IdleFPS)
				ticker.Reset(frameInterval)
				log.Println("Switched to idle mode")
			}

			if !activeMode {
				frame.Close()
				a.skip()
				continue
			}

			res, err := a.ProcessFrame(frame)
			frame.Close()
			if err != nil {
				log.Printf("Error processing frame: %v", err)
				continue
			}
			if res.Resolved {
				log.Printf("Frame %d: pose %s (distance %.2f)", res.Frame, res.Pose, res.PoseDistance)
			}
		}
	}
}
