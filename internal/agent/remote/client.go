// Package remote contains the agent's HTTP clients for the profile service
// and the external biometric capabilities. All transport failures are mapped
// into the shared sentinel taxonomy so callers only ever match with
// errors.Is.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
	"github.com/avigen/faceguard/internal/models"
)

const requestTimeout = 12 * time.Second

// Client talks to the profile service. It carries the bearer token obtained
// from Login on every subsequent request.
type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu    sync.Mutex
	token string
}

func NewClient(baseURL string, log logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		log:     log.With("component", "remote"),
	}
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do sends a JSON request and decodes the JSON response into out (when out
// is non-nil). Non-2xx statuses and transport failures come back as mapped
// sentinel errors.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", faceerr.ErrUnknown, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", faceerr.ErrUnknown, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection refused, DNS failure, timeout: the backend is
		// unreachable, not broken.
		return fmt.Errorf("%w: %v", faceerr.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", faceerr.ErrUnknown, err)
		}
	}
	return nil
}

// mapStatus converts an HTTP error status into the sentinel taxonomy.
func mapStatus(resp *http.Response) error {
	msg := readErrorMessage(resp)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", faceerr.ErrPermissionDenied, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", faceerr.ErrNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", faceerr.ErrInvalidArgument, msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", faceerr.ErrUnavailable, msg)
	default:
		return fmt.Errorf("%w: %s (status %d)", faceerr.ErrUnknown, msg, resp.StatusCode)
	}
}

func readErrorMessage(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return resp.Status
}

// Ping probes server reachability. Used by the connectivity monitor.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/ping", nil, nil)
}

// Login authenticates the user and stores the returned bearer token for
// subsequent requests.
func (c *Client) Login(ctx context.Context, id, password string) error {
	in := struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}{ID: id, Password: password}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", in, &out); err != nil {
		return err
	}
	c.setToken(out.AccessToken)
	return nil
}

// Logout drops the stored bearer token.
func (c *Client) Logout() {
	c.setToken("")
}

// GetProfile reads the user's profile record from the service.
func (c *Client) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/v1/profiles/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateFace patches the registration-related fields of the profile. This is
// the persistence step of the enrollment pipeline; repeated calls overwrite.
func (c *Client) UpdateFace(ctx context.Context, id, imageURL string, features []float64) error {
	in := struct {
		FaceRegistered bool      `json:"face_registered"`
		FaceImageURL   string    `json:"face_image_url"`
		FacialFeatures []float64 `json:"facial_features"`
	}{FaceRegistered: true, FaceImageURL: imageURL, FacialFeatures: features}
	return c.do(ctx, http.MethodPatch, "/v1/profiles/"+id+"/face", in, nil)
}

// UploadFaceImage stores the still image in blob storage keyed by the
// profile id and returns its durable URL. Overwrite semantics on repeated
// calls.
func (c *Client) UploadFaceImage(ctx context.Context, id string, image []byte) (string, error) {
	in := struct {
		Image string `json:"image"`
	}{Image: base64.StdEncoding.EncodeToString(image)}
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/profiles/"+id+"/face-image", in, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
