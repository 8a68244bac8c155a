package config

import (
	"encoding/json"
	"os"

	"github.com/avigen/faceguard/internal/flagx"
	"github.com/avigen/faceguard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	ExtractorURL        string         `json:"extractor_url"`
	VerifierURL         string         `json:"verifier_url"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	CacheDSN            string         `json:"cache_dsn"`
	CameraDevice        string         `json:"camera_device"`
	FakeCamera          *bool          `json:"fake_camera"`
	LivenessActions     []string       `json:"liveness_actions"`
	LivenessDuration    timex.Duration `json:"liveness_duration"`
}

// parseJson overlays Config with values loaded from a JSON file resolved via
// the -c/-config flags. Missing file path means no JSON is loaded. Read or
// unmarshal errors panic (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.ExtractorURL != "" {
		cfg.ExtractorURL = jc.ExtractorURL
	}
	if jc.VerifierURL != "" {
		cfg.VerifierURL = jc.VerifierURL
	}
	if jc.OnlineCheckInterval != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Std()
	}
	if jc.CacheDSN != "" {
		cfg.CacheDSN = jc.CacheDSN
	}
	if jc.CameraDevice != "" {
		cfg.CameraDevice = jc.CameraDevice
	}
	if jc.FakeCamera != nil {
		cfg.FakeCamera = *jc.FakeCamera
	}
	if len(jc.LivenessActions) > 0 {
		cfg.LivenessActions = jc.LivenessActions
	}
	if jc.LivenessDuration != 0 {
		cfg.LivenessDuration = jc.LivenessDuration.Std()
	}
}
