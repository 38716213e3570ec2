package server

import (
	"fmt"
	"image"
	"image/color"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/shape"
)

// Default overlay rendering settings
const (
	DefaultStreamWidth  = 160
	DefaultStreamHeight = 120
	DefaultStreamScale  = 4
)

var (
	contourColor = color.RGBA{R: 160, G: 160, B: 160}
	palmColor    = color.RGBA{G: 200}
	tipColor     = color.RGBA{R: 255, G: 255}
)

// OverlayStream serves the latest published result as an MJPEG stream of
// rendered overlays.
type OverlayStream struct {
	hub      *ShapeHub
	width    int
	height   int
	scale    int
	interval time.Duration
}

// NewOverlayStream creates a stream over hub's results at the default
// working size.
func NewOverlayStream(hub *ShapeHub) *OverlayStream {
	return &OverlayStream{
		hub:      hub,
		width:    DefaultStreamWidth,
		height:   DefaultStreamHeight,
		scale:    DefaultStreamScale,
		interval: 66 * time.Millisecond, // ~15 FPS
	}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (s *OverlayStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		res := s.hub.Latest()
		if res == nil {
			continue
		}

		frame := Render(res, s.width, s.height, s.scale)
		buf, err := gocv.IMEncode(".jpg", frame)
		frame.Close()
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// Render draws res into a new BGR Mat of w x h scaled by scale: the
// unwrapped contour, the palm circle, the fingertips and, when present,
// the labeled overlay. The caller is responsible for closing the Mat.
func Render(res *shape.Result, w, h, scale int) gocv.Mat {
	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8UC3)
	defer canvas.Close()

	for i := 1; i < len(res.Stereo); i++ {
		gocv.Line(&canvas, res.Stereo[i-1], res.Stereo[i], contourColor, 1)
	}
	if res.Palm.Radius > 0 {
		gocv.Circle(&canvas, res.Palm.Center, int(res.Palm.Radius), palmColor, 1)
	}
	for _, tip := range res.Tips {
		gocv.Circle(&canvas, tip.Point, 2, tipColor, -1)
	}
	for _, p := range res.Overlay {
		if p.Point.X < 0 || p.Point.Y < 0 || p.Point.X >= w || p.Point.Y >= h {
			continue
		}
		canvas.SetUCharAt(p.Point.Y, p.Point.X*3, p.Color.B)
		canvas.SetUCharAt(p.Point.Y, p.Point.X*3+1, p.Color.G)
		canvas.SetUCharAt(p.Point.Y, p.Point.X*3+2, p.Color.R)
	}

	out := gocv.NewMat()
	if scale <= 1 {
		canvas.CopyTo(&out)
		return out
	}
	gocv.Resize(canvas, &out, image.Point{X: w * scale, Y: h * scale}, 0, 0, gocv.InterpolationNearestNeighbor)
	return out
}
