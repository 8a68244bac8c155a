package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/avigen/faceguard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the profile service
//	-x string   base URL of the feature extractor
//	-v string   base URL of the liveness verifier
//	-i int      online check interval in seconds
//	-d string   camera device path
//	-fake-camera  use the synthetic camera source
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-x", "-v", "-i", "-d", "-fake-camera"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the profile service")
	fs.StringVar(&cfg.ExtractorURL, "x", cfg.ExtractorURL, "base URL of the feature extractor")
	fs.StringVar(&cfg.VerifierURL, "v", cfg.VerifierURL, "base URL of the liveness verifier")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.CameraDevice, "d", cfg.CameraDevice, "camera device path")
	fs.BoolVar(&cfg.FakeCamera, "fake-camera", cfg.FakeCamera, "use the synthetic camera source")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	cfg.ExtractorURL = strings.TrimRight(cfg.ExtractorURL, "/")
	cfg.VerifierURL = strings.TrimRight(cfg.VerifierURL, "/")
}
