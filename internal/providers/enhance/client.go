package enhance

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Options configures the HTTP enhancement client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to the enhancement backend: one endpoint per operation, all
// sharing the same request envelope.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds an enhancement client.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
	}
}

type wireImage struct {
	Data string `json:"data,omitempty"`
	MIME string `json:"mime,omitempty"`
	URL  string `json:"url,omitempty"`
}

type enhanceRequest struct {
	Image   wireImage    `json:"image"`
	Scale   int          `json:"scale,omitempty"`
	Regions []EditRegion `json:"regions,omitempty"`
}

type enhanceResponse struct {
	Image *struct {
		Data   string `json:"data"`
		MIME   string `json:"mime"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"image,omitempty"`
	Verdict *Verdict `json:"verdict,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Upscale requests an upscaled derivative at the given integer scale.
func (c *Client) Upscale(ctx context.Context, img ImageRef, scale int) (Result, error) {
	if scale <= 1 {
		scale = 2
	}
	out, err := c.post(ctx, "/enhance/upscale", enhanceRequest{Image: toWireImage(img), Scale: scale})
	if err != nil {
		return Result{}, err
	}
	return decodeResult(out)
}

// Regenerate4K requests a full 4K re-render of the image.
func (c *Client) Regenerate4K(ctx context.Context, img ImageRef) (Result, error) {
	out, err := c.post(ctx, "/enhance/regenerate-4k", enhanceRequest{Image: toWireImage(img)})
	if err != nil {
		return Result{}, err
	}
	return decodeResult(out)
}

// Edit applies the region+instruction pairs and returns the edited image.
func (c *Client) Edit(ctx context.Context, img ImageRef, regions []EditRegion) (Result, error) {
	if len(regions) == 0 {
		return Result{}, errors.New("enhance: at least one edit region is required")
	}
	out, err := c.post(ctx, "/enhance/edit", enhanceRequest{Image: toWireImage(img), Regions: regions})
	if err != nil {
		return Result{}, err
	}
	return decodeResult(out)
}

// RemoveText requests a derivative with all rendered text stripped.
func (c *Client) RemoveText(ctx context.Context, img ImageRef) (Result, error) {
	out, err := c.post(ctx, "/enhance/remove-text", enhanceRequest{Image: toWireImage(img)})
	if err != nil {
		return Result{}, err
	}
	return decodeResult(out)
}

// QualityCheck returns the backend's structured verdict for the image.
func (c *Client) QualityCheck(ctx context.Context, img ImageRef) (Verdict, error) {
	out, err := c.post(ctx, "/quality/check", enhanceRequest{Image: toWireImage(img)})
	if err != nil {
		return Verdict{}, err
	}
	if out.Verdict == nil {
		return Verdict{}, errors.New("enhance: response missing verdict")
	}
	return *out.Verdict, nil
}

// SuggestTags returns descriptive tags for the image.
func (c *Client) SuggestTags(ctx context.Context, img ImageRef) ([]string, error) {
	out, err := c.post(ctx, "/quality/tags", enhanceRequest{Image: toWireImage(img)})
	if err != nil {
		return nil, err
	}
	return out.Tags, nil
}

func (c *Client) post(ctx context.Context, path string, payload enhanceRequest) (*enhanceResponse, error) {
	if c == nil {
		return nil, errors.New("enhance: client not configured")
	}
	if c.apiKey == "" {
		return nil, errors.New("enhance: API key is missing")
	}
	if payload.Image.Data == "" && payload.Image.URL == "" {
		return nil, errors.New("enhance: image payload or url required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out enhanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("enhance: http %d", resp.StatusCode)
		}
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Message != "" {
			return nil, fmt.Errorf("enhance error: %s (%s)", out.Message, out.Code)
		}
		return nil, fmt.Errorf("enhance: http %d", resp.StatusCode)
	}
	return &out, nil
}

func decodeResult(out *enhanceResponse) (Result, error) {
	if out.Image == nil || out.Image.Data == "" {
		return Result{}, errors.New("enhance: response missing image")
	}
	data, err := base64.StdEncoding.DecodeString(out.Image.Data)
	if err != nil {
		return Result{}, fmt.Errorf("enhance: decode image payload: %w", err)
	}
	mime := out.Image.MIME
	if mime == "" {
		mime = "image/png"
	}
	return Result{Data: data, MIME: mime, Width: out.Image.Width, Height: out.Image.Height}, nil
}

func toWireImage(img ImageRef) wireImage {
	w := wireImage{MIME: img.MIME, URL: img.URL}
	if len(img.Data) > 0 {
		w.Data = base64.StdEncoding.EncodeToString(img.Data)
	}
	return w
}

var _ Service = (*Client)(nil)
