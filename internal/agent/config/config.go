// Package config handles configuration for the enrollment agent, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the faceguard agent.
//
// Fields:
//   - ServerURL: base URL of the profile service.
//   - ExtractorURL / VerifierURL: base URLs of the external ML capabilities.
//   - OnlineCheckInterval: how often the agent probes server reachability.
//   - CacheDSN: path of the local SQLite mirror.
//   - CameraDevice: V4L2 device path.
//   - FakeCamera: use the synthetic frame source instead of a real camera.
//   - LivenessActions: ordered action schedule for the challenge.
//   - LivenessDuration: total recording time of the challenge.
type Config struct {
	ServerURL           string
	ExtractorURL        string
	VerifierURL         string
	OnlineCheckInterval time.Duration
	CacheDSN            string
	CameraDevice        string
	FakeCamera          bool
	LivenessActions     []string
	LivenessDuration    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.ExtractorURL = "http://127.0.0.1:9090"
	c.VerifierURL = "http://127.0.0.1:9090"
	c.OnlineCheckInterval = 3 * time.Second
	c.CacheDSN = "faceguard.db"
	c.CameraDevice = "/dev/video0"
	c.FakeCamera = false
	c.LivenessActions = []string{"blink", "turn_head_right"}
	c.LivenessDuration = 6 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
