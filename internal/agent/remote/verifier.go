package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avigen/faceguard/internal/agent/liveness"
	"github.com/avigen/faceguard/internal/logging"
)

// LivenessVerifier calls the external liveness capability. Errors here are
// returned raw: the liveness challenge wraps them into its own taxonomy so
// that a transport failure stays distinct from a rejection.
type LivenessVerifier struct {
	endpoint string
	http     *http.Client
	log      logging.Logger
}

func NewLivenessVerifier(endpoint string, log logging.Logger) *LivenessVerifier {
	return &LivenessVerifier{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 60 * time.Second},
		log:      log.With("component", "verifier"),
	}
}

func (v *LivenessVerifier) Verify(ctx context.Context, video []byte, required []liveness.Action) (liveness.Result, error) {
	actions := make([]string, 0, len(required))
	for _, a := range required {
		actions = append(actions, string(a))
	}

	in := struct {
		Video           string   `json:"video"`
		RequiredActions []string `json:"required_actions"`
	}{Video: base64.StdEncoding.EncodeToString(video), RequiredActions: actions}

	data, err := json.Marshal(in)
	if err != nil {
		return liveness.Result{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint+"/v1/liveness", bytes.NewReader(data))
	if err != nil {
		return liveness.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		return liveness.Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return liveness.Result{}, fmt.Errorf("verifier returned %s", resp.Status)
	}

	var out struct {
		IsLive           bool     `json:"is_live"`
		PerformedActions []string `json:"performed_actions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return liveness.Result{}, fmt.Errorf("decode response: %w", err)
	}

	performed := make([]liveness.Action, 0, len(out.PerformedActions))
	for _, a := range out.PerformedActions {
		performed = append(performed, liveness.Action(a))
	}

	v.log.Debug(ctx, "liveness verdict", "is_live", out.IsLive, "performed", out.PerformedActions)
	return liveness.Result{IsLive: out.IsLive, PerformedActions: performed}, nil
}
