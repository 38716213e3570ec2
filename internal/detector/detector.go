// Package detector segments camera frames into hand silhouettes at the
// working resolution of the shape pipeline.
package detector

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/raster"
)

// Detector defines the interface for hand segmentation implementations.
type Detector interface {
	// Detect segments a BGR frame and returns the hand found in it, or nil
	// when the frame holds no hand.
	Detect(frame *gocv.Mat) (*Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Hand is the segmented region of one hand.
type Hand struct {
	// Token identifies the tracked hand. It changes whenever the hand is
	// lost and found again.
	Token  string
	Blobs  []raster.Blob
	Bounds image.Rectangle
	// Area is the total number of blob pixels.
	Area int
}

// Config holds configuration options for hand segmentation.
type Config struct {
	// Width and Height are the working raster size frames are resized to.
	Width  int
	Height int

	// Threshold is the gray level above which a pixel belongs to the hand.
	Threshold uint8
	// Invert segments dark hands on a bright background.
	Invert bool

	// MinBlobArea drops blobs smaller than this many pixels.
	MinBlobArea int
	// MinHandArea is the total area below which no hand is reported.
	MinHandArea int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Width:       160,
		Height:      120,
		Threshold:   200,
		MinBlobArea: 20,
		MinHandArea: 300,
	}
}
