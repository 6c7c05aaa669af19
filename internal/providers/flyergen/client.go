package flyergen

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

	"flyerstudio/internal/domain"
)

// Options configures the HTTP generation client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client calls the external flyer generation backend over HTTP. One request
// produces PatternCount images; there is no streaming, the call suspends
// until the backend answers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a generation client. The per-request API key from the job
// snapshot takes precedence over the configured one.
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

type wireAsset struct {
	Name string `json:"name,omitempty"`
	MIME string `json:"mime,omitempty"`
	Data string `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

type generateRequest struct {
	Mode         string `json:"mode"`
	PatternCount int    `json:"pattern_count"`
	ImageSize    string `json:"image_size,omitempty"`
	Brief        string `json:"brief"`

	Products       []domain.Product           `json:"products,omitempty"`
	Campaign       *domain.CampaignInfo       `json:"campaign,omitempty"`
	ProductService *domain.ProductServiceInfo `json:"product_service,omitempty"`
	SalesLetter    *domain.SalesLetterInfo    `json:"sales_letter,omitempty"`

	Characters     []wireAsset `json:"characters,omitempty"`
	References     []wireAsset `json:"references,omitempty"`
	Logos          []wireAsset `json:"logos,omitempty"`
	Illustrations  []wireAsset `json:"illustrations,omitempty"`
	CustomerPhotos []wireAsset `json:"customer_photos,omitempty"`
	ProductPhotos  []wireAsset `json:"product_photos,omitempty"`
}

type generateResponse struct {
	Images []struct {
		Data   string `json:"data"`
		MIME   string `json:"mime"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Generate submits one generation request and decodes the returned images.
func (c *Client) Generate(ctx context.Context, req Request) ([]Image, error) {
	if c == nil {
		return nil, errors.New("flyergen: client not configured")
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return nil, errors.New("flyergen: API key is missing")
	}

	payload := buildWireRequest(req)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/flyers/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("flyergen: http %d", resp.StatusCode)
		}
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Message != "" {
			return nil, fmt.Errorf("flyergen error: %s (%s)", out.Message, out.Code)
		}
		return nil, fmt.Errorf("flyergen: http %d", resp.StatusCode)
	}
	if len(out.Images) == 0 {
		return nil, domain.ErrEmptyResult
	}

	images := make([]Image, 0, len(out.Images))
	for _, img := range out.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, fmt.Errorf("flyergen: decode image payload: %w", err)
		}
		mime := img.MIME
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, Image{Data: data, MIME: mime, Width: img.Width, Height: img.Height})
	}
	return images, nil
}

// buildWireRequest maps the normalized request onto the wire shape. Only the
// content block matching the mode is sent; the backend treats the variants as
// mutually exclusive.
func buildWireRequest(req Request) generateRequest {
	out := generateRequest{
		Mode:         req.Mode.String(),
		PatternCount: req.PatternCount,
		ImageSize:    req.ImageSize,
		Brief:        BuildBrief(req),
	}
	switch req.Mode {
	case domain.ModeFrontCampaign:
		campaign := req.Campaign
		out.Campaign = &campaign
	case domain.ModeFrontProductService:
		ps := req.ProductService
		out.ProductService = &ps
	case domain.ModeFrontSalesLetter:
		sl := req.SalesLetter
		out.SalesLetter = &sl
	case domain.ModeBack:
		out.Products = req.Products
	}
	out.Characters = toWireAssets(req.Assets.Characters)
	out.References = toWireAssets(req.Assets.References)
	out.Logos = toWireAssets(req.Assets.Logos)
	out.Illustrations = toWireAssets(req.Assets.Illustrations)
	out.CustomerPhotos = toWireAssets(req.Assets.CustomerPhotos)
	out.ProductPhotos = toWireAssets(req.Assets.ProductPhotos)
	return out
}

func toWireAssets(in []domain.AssetImage) []wireAsset {
	if len(in) == 0 {
		return nil
	}
	out := make([]wireAsset, 0, len(in))
	for _, a := range in {
		w := wireAsset{Name: a.Name, MIME: a.MIME, URL: a.URL}
		if len(a.Data) > 0 {
			w.Data = base64.StdEncoding.EncodeToString(a.Data)
		}
		out = append(out, w)
	}
	return out
}

var _ Generator = (*Client)(nil)
