package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
)

// Extractor calls the external feature-extraction capability: it turns an
// encoded still image into an ordered numeric feature vector.
type Extractor struct {
	endpoint string
	http     *http.Client
	log      logging.Logger
}

func NewExtractor(endpoint string, log logging.Logger) *Extractor {
	return &Extractor{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log.With("component", "extractor"),
	}
}

// Extract returns the feature vector for the image. An empty or absent
// vector means no face was found and maps to faceerr.ErrNoFaceDetected.
func (e *Extractor) Extract(ctx context.Context, image []byte) ([]float64, error) {
	in := struct {
		Image string `json:"image"`
	}{Image: base64.StdEncoding.EncodeToString(image)}

	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", faceerr.ErrUnknown, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/v1/extract", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faceerr.ErrUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faceerr.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, mapStatus(resp)
	}

	var out struct {
		Features []float64 `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", faceerr.ErrUnknown, err)
	}

	if len(out.Features) == 0 {
		return nil, faceerr.ErrNoFaceDetected
	}

	e.log.Debug(ctx, "features extracted", "dims", len(out.Features))
	return out.Features, nil
}
