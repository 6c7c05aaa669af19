package flyergen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flyerstudio/internal/domain"
)

func campaignRequest(count int) Request {
	return Request{
		Mode:         domain.ModeFrontCampaign,
		APIKey:       "test-key",
		PatternCount: count,
		ImageSize:    "a4",
		Campaign:     domain.CampaignInfo{Title: "Grand Opening", Period: "Sept 1-7"},
		Assets: domain.AssetSelection{
			Logos: []domain.AssetImage{{Name: "logo.png", MIME: "image/png", Data: []byte{1, 2, 3}}},
		},
	}
}

func TestClientGenerate(t *testing.T) {
	var captured generateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := generateResponse{}
		for i := 0; i < captured.PatternCount; i++ {
			resp.Images = append(resp.Images, struct {
				Data   string `json:"data"`
				MIME   string `json:"mime"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			}{Data: base64.StdEncoding.EncodeToString([]byte{0x89, byte(i)}), MIME: "image/png", Width: 1024, Height: 1448})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	images, err := client.Generate(context.Background(), campaignRequest(3))
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	if images[0].MIME != "image/png" || images[0].Width != 1024 {
		t.Fatalf("image metadata mismatch: %+v", images[0])
	}

	if captured.Mode != "front_campaign" {
		t.Fatalf("unexpected mode on the wire: %s", captured.Mode)
	}
	if captured.Campaign == nil || captured.Campaign.Title != "Grand Opening" {
		t.Fatalf("campaign block missing: %+v", captured.Campaign)
	}
	if captured.ProductService != nil || captured.SalesLetter != nil || len(captured.Products) != 0 {
		t.Fatalf("non-selected content blocks must not be sent")
	}
	if len(captured.Logos) != 1 || captured.Logos[0].Data == "" {
		t.Fatalf("logo asset not encoded: %+v", captured.Logos)
	}
	if !strings.Contains(captured.Brief, "Grand Opening") {
		t.Fatalf("brief missing campaign title: %s", captured.Brief)
	}
}

func TestClientGenerateBackSide(t *testing.T) {
	var captured generateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		resp := generateResponse{}
		resp.Images = append(resp.Images, struct {
			Data   string `json:"data"`
			MIME   string `json:"mime"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		}{Data: base64.StdEncoding.EncodeToString([]byte{1})})
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIKey: "fallback-key"})
	req := Request{
		Mode:         domain.ModeBack,
		PatternCount: 1,
		Products:     []domain.Product{{Name: "Croissant", Price: "300"}},
	}
	if _, err := client.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if captured.Mode != "back" || len(captured.Products) != 1 {
		t.Fatalf("back-side payload mismatch: %+v", captured)
	}
	if captured.Campaign != nil {
		t.Fatalf("campaign block leaked into back-side request")
	}
}

func TestClientGenerateBackendError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(generateResponse{Code: "overloaded", Message: "try again later"})
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIKey: "k"})
	_, err := client.Generate(context.Background(), Request{Mode: domain.ModeFrontCampaign, PatternCount: 1})
	if err == nil || !strings.Contains(err.Error(), "try again later") {
		t.Fatalf("expected backend error message, got %v", err)
	}
}

func TestClientGenerateEmptyResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{})
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIKey: "k"})
	_, err := client.Generate(context.Background(), Request{Mode: domain.ModeFrontCampaign, PatternCount: 1})
	if !errors.Is(err, domain.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestClientGenerateMissingKey(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://localhost:0"})
	if _, err := client.Generate(context.Background(), Request{Mode: domain.ModeFrontCampaign}); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}

func TestFromSnapshotDefaultsPatternCount(t *testing.T) {
	req := FromSnapshot(domain.Snapshot{APIKey: "k"})
	if req.PatternCount != 1 {
		t.Fatalf("pattern count should default to 1, got %d", req.PatternCount)
	}
}
