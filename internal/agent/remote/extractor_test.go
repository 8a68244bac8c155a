package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avigen/faceguard/internal/agent/liveness"
	"github.com/avigen/faceguard/internal/faceerr"
)

func TestExtractor_Extract(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xaa}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/extract", r.URL.Path)

		var in struct {
			Image string `json:"image"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		decoded, err := base64.StdEncoding.DecodeString(in.Image)
		require.NoError(t, err)
		assert.Equal(t, image, decoded)

		_ = json.NewEncoder(w).Encode(map[string]any{"features": []float64{0.1, 0.2}})
	}))
	defer srv.Close()

	e := NewExtractor(srv.URL, nopLogger{})
	features, err := e.Extract(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, features)
}

func TestExtractor_NoFace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"features": []float64{}})
	}))
	defer srv.Close()

	e := NewExtractor(srv.URL, nopLogger{})
	_, err := e.Extract(context.Background(), []byte{1})
	require.ErrorIs(t, err, faceerr.ErrNoFaceDetected)
}

func TestExtractor_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	e := NewExtractor(srv.URL, nopLogger{})
	_, err := e.Extract(context.Background(), []byte{1})
	require.ErrorIs(t, err, faceerr.ErrUnavailable)
}

func TestLivenessVerifier_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/liveness", r.URL.Path)

		var in struct {
			Video           string   `json:"video"`
			RequiredActions []string `json:"required_actions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, []string{"blink", "nod"}, in.RequiredActions)
		assert.NotEmpty(t, in.Video)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"is_live":           true,
			"performed_actions": []string{"nod", "blink"},
		})
	}))
	defer srv.Close()

	v := NewLivenessVerifier(srv.URL, nopLogger{})
	res, err := v.Verify(context.Background(), []byte("clip"), []liveness.Action{liveness.ActionBlink, liveness.ActionNod})
	require.NoError(t, err)
	assert.True(t, res.IsLive)
	assert.Equal(t, []liveness.Action{liveness.ActionNod, liveness.ActionBlink}, res.PerformedActions)
}

func TestLivenessVerifier_ErrorIsRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := NewLivenessVerifier(srv.URL, nopLogger{})
	_, err := v.Verify(context.Background(), []byte("clip"), []liveness.Action{liveness.ActionBlink})
	require.Error(t, err)
	// raw transport error: the challenge wraps it, not the client
	assert.NotErrorIs(t, err, faceerr.ErrVerification)
}
