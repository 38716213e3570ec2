package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/shape"
	"github.com/ayusman/mudra/internal/store"
)

func main() {
	var (
		addr      = flag.String("addr", ":8080", "HTTP listen address")
		dbPath    = flag.String("db", "", "SQLite database path (default ~/.mudra/mudra.db)")
		cameraID  = flag.Int("camera", 0, "camera device ID")
		video     = flag.String("video", "", "read frames from a video file instead of the camera")
		threshold = flag.Int("threshold", 200, "gray level above which a pixel belongs to the hand")
		invert    = flag.Bool("invert", false, "segment a dark hand on a bright background")
		motion    = flag.Float64("motion", 1.0, "percentage of changed pixels that wakes the pipeline")
		visualize = flag.Bool("visualize", true, "compute overlay points for the stream")
		staticDir = flag.String("static", "", "directory of static web files")
	)
	flag.Parse()

	fmt.Println("Mudra - Hand Shape Analysis")

	if *dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dbDir := filepath.Join(homeDir, ".mudra")
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		*dbPath = filepath.Join(dbDir, "mudra.db")
	}

	st, err := store.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	added, err := st.Poses().Seed(pose.Builtin())
	if err != nil {
		log.Fatalf("Failed to seed poses: %v", err)
	}
	if added > 0 {
		log.Printf("Seeded %d built-in poses", added)
	}

	shapeCfg := shape.DefaultConfig()
	detCfg := detector.DefaultConfig()
	detCfg.Width, detCfg.Height = shapeCfg.Width, shapeCfg.Height
	if detCfg.Threshold, err = grayLevel(*threshold); err != nil {
		log.Fatalf("Invalid -threshold: %v", err)
	}
	detCfg.Invert = *invert
	det, err := detector.NewThresholdDetector(detCfg)
	if err != nil {
		log.Fatalf("Failed to create detector: %v", err)
	}

	var src capture.Source
	if *video != "" {
		src = capture.NewVideoFile(*video)
	} else {
		src = capture.NewCamera(*cameraID)
	}

	poses := pose.NewEstimator()
	hub := server.NewShapeHub()

	application, err := app.New(app.Config{
		Store:        st,
		Source:       src,
		MotionThresh: *motion,
		Detector:     det,
		Shape:        shapeCfg,
		Poses:        poses,
		Publisher:    hub,
		Visualize:    *visualize,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	defer application.Close()

	if _, err := application.LoadPoses(); err != nil {
		log.Fatalf("Failed to load poses: %v", err)
	}

	application.SetEnabled(true)
	if err := application.Start(); err != nil {
		log.Printf("Pipeline not started: %v", err)
	}

	webDir := *staticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Poses:     poses,
		Hub:       hub,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-application.Done():
	}
	log.Println("Shutting down")
}

// grayLevel checks that v fits an 8-bit gray level.
func grayLevel(v int) (uint8, error) {
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("gray level %d outside 0-255", v)
	}
	return uint8(v), nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
