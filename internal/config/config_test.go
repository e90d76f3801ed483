package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allEnvVars = []string{
	"BEADGRAPH_HTTP_ADDR", "BEADGRAPH_FEED_URL", "BEADGRAPH_WS_URL",
	"BEADGRAPH_NATS_URL", "BEADGRAPH_WATCH_FILE", "BEADGRAPH_AUTH_TOKEN",
	"BEADGRAPH_FPS", "BEADGRAPH_RECONNECT_DELAY", "BEADGRAPH_CONFIG",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name          string
		env           map[string]string
		wantErr       bool
		wantHTTPAddr  string
		wantFPS       int
		wantReconnect time.Duration
		wantWSURL     string
	}{
		{
			name:          "Defaults",
			env:           map[string]string{},
			wantHTTPAddr:  ":8080",
			wantFPS:       60,
			wantReconnect: 5 * time.Second,
		},
		{
			name: "Custom",
			env: map[string]string{
				"BEADGRAPH_HTTP_ADDR":       ":3000",
				"BEADGRAPH_FPS":             "30",
				"BEADGRAPH_RECONNECT_DELAY": "250ms",
				"BEADGRAPH_WS_URL":          "ws://localhost:4010/ws",
			},
			wantHTTPAddr:  ":3000",
			wantFPS:       30,
			wantReconnect: 250 * time.Millisecond,
			wantWSURL:     "ws://localhost:4010/ws",
		},
		{name: "BadFPS", env: map[string]string{"BEADGRAPH_FPS": "fast"}, wantErr: true},
		{name: "ZeroFPS", env: map[string]string{"BEADGRAPH_FPS": "0"}, wantErr: true},
		{name: "BadDelay", env: map[string]string{"BEADGRAPH_RECONNECT_DELAY": "soon"}, wantErr: true},
		{name: "NegativeDelay", env: map[string]string{"BEADGRAPH_RECONNECT_DELAY": "-1s"}, wantErr: true},
		{name: "MissingConfigFile", env: map[string]string{"BEADGRAPH_CONFIG": "/nonexistent/beadgraph.toml"}, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.FPS != tc.wantFPS {
				t.Errorf("FPS = %d, want %d", cfg.FPS, tc.wantFPS)
			}
			if cfg.ReconnectDelay != tc.wantReconnect {
				t.Errorf("ReconnectDelay = %v, want %v", cfg.ReconnectDelay, tc.wantReconnect)
			}
			if cfg.WSURL != tc.wantWSURL {
				t.Errorf("WSURL = %q, want %q", cfg.WSURL, tc.wantWSURL)
			}
			if cfg.Tuning.Layout.LinkDistance != 100 {
				t.Errorf("default link distance = %v, want 100", cfg.Tuning.Layout.LinkDistance)
			}
		})
	}
}

func TestLoad_TuningFile(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "beadgraph.toml")
	doc := `
[layout]
dimensions = 2
link_distance = 60
seed = 7

[camera]
distance = 800
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BEADGRAPH_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	l := cfg.Tuning.Layout
	if l.Dimensions != 2 || l.LinkDistance != 60 || l.Seed != 7 {
		t.Errorf("layout = %+v", l)
	}
	if l.ChargeStrength != -300 {
		t.Errorf("charge = %v, want the default kept", l.ChargeStrength)
	}
	if cfg.Tuning.Camera.Distance != 800 || cfg.Tuning.Camera.FOV != 75 {
		t.Errorf("camera = %+v", cfg.Tuning.Camera)
	}
}

func TestLoadTuning_UnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beadgraph.toml")
	if err := os.WriteFile(path, []byte("[layout]\nlink_strength = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var tun Tuning
	err := LoadTuning(path, &tun)
	if err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Errorf("LoadTuning error = %v, want unknown keys", err)
	}
}
