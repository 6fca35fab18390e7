package backendapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"alert-desk/internal/models"
	apierrors "alert-desk/pkg/errors"

	"github.com/rs/zerolog"
)

const (
	// csrfCookieName is the fixed cookie the backend session sets; its
	// value rides along as the anti-forgery header on every mutating call.
	csrfCookieName = "csrftoken"
	csrfHeader     = "X-CSRFToken"

	requestTimeout = 30 * time.Second
)

// Client issues the administrative request/response calls that live outside
// the persistent channel: acknowledge, settings fetch/update, sound
// upload/delete. These calls are independent of each other and of the frame
// stream; no ordering across them is assumed.
type Client struct {
	baseURL func() string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a client against the backend base URL. baseURL is read
// per request so a settings change takes effect without rebuilding the
// client.
func NewClient(baseURL func() string, logger zerolog.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		logger: logger.With().Str("component", "backendapi").Logger(),
	}
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Acknowledge marks one alert as seen.
func (c *Client) Acknowledge(ctx context.Context, alertID string) error {
	var out statusResponse
	path := fmt.Sprintf("/api/alerts/%s/ack/", url.PathEscape(alertID))
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]any{}, &out); err != nil {
		return err
	}
	if !out.Success {
		return apierrors.New(apierrors.KindAdminCall,
			fmt.Sprintf("acknowledging alert %s: %s", alertID, errText(out.Error)))
	}
	return nil
}

// FetchSettings retrieves the remote settings object.
func (c *Client) FetchSettings(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	if err := c.doJSON(ctx, http.MethodGet, "/api/settings/", nil, &s); err != nil {
		return models.Settings{}, err
	}
	return s, nil
}

// UpdateSettings replaces the remote settings with the full given object.
func (c *Client) UpdateSettings(ctx context.Context, s models.Settings) error {
	var out statusResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/settings/update/", s, &out); err != nil {
		return err
	}
	if !out.Success {
		return apierrors.New(apierrors.KindAdminCall, "updating settings: "+errText(out.Error))
	}
	return nil
}

type uploadResponse struct {
	Success bool          `json:"success"`
	Sound   *models.Sound `json:"sound,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// UploadSound uploads an audio file encoded the way the backend expects:
// a data URI inside a JSON body.
func (c *Client) UploadSound(ctx context.Context, fileName, customName string, data []byte) (models.Sound, error) {
	body := map[string]any{
		"file":        "data:audio/" + fileExt(fileName) + ";base64," + base64.StdEncoding.EncodeToString(data),
		"name":        fileName,
		"custom_name": customName,
	}
	var out uploadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/sounds/upload/", body, &out); err != nil {
		return models.Sound{}, err
	}
	if !out.Success || out.Sound == nil {
		return models.Sound{}, apierrors.New(apierrors.KindAdminCall, "uploading sound: "+errText(out.Error))
	}
	return *out.Sound, nil
}

// DeleteSound removes an uploaded sound. Default sounds are rejected by the
// backend.
func (c *Client) DeleteSound(ctx context.Context, soundID int) error {
	var out statusResponse
	path := fmt.Sprintf("/api/sounds/%d/delete/", soundID)
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]any{}, &out); err != nil {
		return err
	}
	if !out.Success {
		return apierrors.New(apierrors.KindAdminCall,
			fmt.Sprintf("deleting sound %d: %s", soundID, errText(out.Error)))
	}
	return nil
}

// ListSounds fetches the sound catalog over the request/response surface.
func (c *Client) ListSounds(ctx context.Context) ([]models.Sound, error) {
	var out struct {
		Sounds []models.Sound `json:"sounds"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/sounds/", nil, &out); err != nil {
		return nil, err
	}
	return out.Sounds, nil
}

// ListAlerts fetches alerts over the request/response surface, independent
// of the persistent channel snapshot.
func (c *Client) ListAlerts(ctx context.Context, status, severity string, limit int) ([]models.Alert, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if severity != "" {
		q.Set("severity", severity)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	path := "/api/alerts/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Alerts []models.Alert `json:"alerts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Alerts, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	base := strings.TrimSuffix(c.baseURL(), "/")
	target := base + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if token := c.csrfToken(base); token != "" {
			req.Header.Set(csrfHeader, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apierrors.Wrap(apierrors.KindAdminCall, fmt.Sprintf("calling %s %s", method, path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierrors.Wrap(apierrors.KindAdminCall, "reading response from "+path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return apierrors.New(apierrors.KindNotFound, fmt.Sprintf("%s %s: not found", method, path))
	}
	if resp.StatusCode != http.StatusOK {
		return apierrors.New(apierrors.KindAdminCall,
			fmt.Sprintf("%s %s returned status %d: %s", method, path, resp.StatusCode, truncate(data, 200)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", path, err)
		}
	}
	return nil
}

func (c *Client) csrfToken(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

func errText(s string) string {
	if s == "" {
		return "backend reported failure"
	}
	return s
}

func fileExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		return strings.ToLower(name[i+1:])
	}
	return "wav"
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
