package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/alfredjeanlab/beadgraph/internal/layout"
	"github.com/alfredjeanlab/beadgraph/internal/picking"
)

// Config holds the viewer engine settings, read from BEADGRAPH_* environment
// variables.
type Config struct {
	HTTPAddr       string        // BEADGRAPH_HTTP_ADDR (default ":8080")
	FeedURL        string        // BEADGRAPH_FEED_URL (optional, base URL for the initial fetch)
	FeedToken      string        // BEADGRAPH_FEED_TOKEN (optional, bearer token for the feed and push channel)
	WSURL          string        // BEADGRAPH_WS_URL (optional, push channel)
	NATSURL        string        // BEADGRAPH_NATS_URL (optional, push channel and outward events)
	WatchFile      string        // BEADGRAPH_WATCH_FILE (optional, dataset file to watch)
	AuthToken      string        // BEADGRAPH_AUTH_TOKEN (optional, empty = auth disabled)
	FPS            int           // BEADGRAPH_FPS (default 60)
	ReconnectDelay time.Duration // BEADGRAPH_RECONNECT_DELAY (default 5s)
	ConfigFile     string        // BEADGRAPH_CONFIG (optional TOML tuning file)

	Tuning Tuning
}

// Tuning is the TOML file layout.
type Tuning struct {
	Layout layout.Config        `toml:"layout"`
	Camera picking.CameraConfig `toml:"camera"`
}

// Load reads the environment and, when BEADGRAPH_CONFIG is set, the TOML
// tuning file.
func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:   envOrDefault("BEADGRAPH_HTTP_ADDR", ":8080"),
		FeedURL:    os.Getenv("BEADGRAPH_FEED_URL"),
		FeedToken:  os.Getenv("BEADGRAPH_FEED_TOKEN"),
		WSURL:      os.Getenv("BEADGRAPH_WS_URL"),
		NATSURL:    os.Getenv("BEADGRAPH_NATS_URL"),
		WatchFile:  os.Getenv("BEADGRAPH_WATCH_FILE"),
		AuthToken:  os.Getenv("BEADGRAPH_AUTH_TOKEN"),
		ConfigFile: os.Getenv("BEADGRAPH_CONFIG"),
		Tuning: Tuning{
			Layout: layout.DefaultConfig(),
			Camera: picking.DefaultCameraConfig(),
		},
	}

	fps, err := strconv.Atoi(envOrDefault("BEADGRAPH_FPS", "60"))
	if err != nil || fps <= 0 || fps > 240 {
		return nil, fmt.Errorf("BEADGRAPH_FPS: want an integer in 1..240, got %q", os.Getenv("BEADGRAPH_FPS"))
	}
	c.FPS = fps

	d, err := time.ParseDuration(envOrDefault("BEADGRAPH_RECONNECT_DELAY", "5s"))
	if err != nil {
		return nil, fmt.Errorf("BEADGRAPH_RECONNECT_DELAY: %w", err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("BEADGRAPH_RECONNECT_DELAY must be positive, got %s", d)
	}
	c.ReconnectDelay = d

	if c.ConfigFile != "" {
		if err := LoadTuning(c.ConfigFile, &c.Tuning); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadTuning overlays the TOML file at path onto t. Keys missing from the
// file keep their current values.
func LoadTuning(path string, t *Tuning) error {
	md, err := toml.DecodeFile(path, t)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%s: unknown keys %v", path, undecoded)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
