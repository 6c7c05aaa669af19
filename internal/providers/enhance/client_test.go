package enhance

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, capture *enhanceRequest, respond func(path string) enhanceResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(respond(r.URL.Path))
	}))
}

func imageResponse(data []byte) enhanceResponse {
	resp := enhanceResponse{}
	resp.Image = &struct {
		Data   string `json:"data"`
		MIME   string `json:"mime"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}{Data: base64.StdEncoding.EncodeToString(data), MIME: "image/png", Width: 2048, Height: 2048}
	return resp
}

func TestClientUpscale(t *testing.T) {
	var captured enhanceRequest
	ts := newTestServer(t, &captured, func(path string) enhanceResponse {
		if path != "/enhance/upscale" {
			t.Fatalf("unexpected path: %s", path)
		}
		return imageResponse([]byte{9, 9})
	})
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIKey: "test-key"})
	res, err := client.Upscale(context.Background(), ImageRef{Data: []byte{1}, MIME: "image/png"}, 2)
	if err != nil {
		t.Fatalf("Upscale error: %v", err)
	}
	if captured.Scale != 2 {
		t.Fatalf("scale not sent: %d", captured.Scale)
	}
	if captured.Image.Data == "" {
		t.Fatalf("image payload not encoded")
	}
	if res.Width != 2048 || len(res.Data) != 2 {
		t.Fatalf("result mismatch: %+v", res)
	}
}

func TestClientEditRequiresRegions(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://localhost:0", APIKey: "k"})
	if _, err := client.Edit(context.Background(), ImageRef{Data: []byte{1}}, nil); err == nil {
		t.Fatalf("expected error for empty region list")
	}
}

func TestClientEditSendsRegions(t *testing.T) {
	var captured enhanceRequest
	ts := newTestServer(t, &captured, func(string) enhanceResponse { return imageResponse([]byte{1}) })
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIKey: "test-key"})
	regions := []EditRegion{{X: 10, Y: 20, Width: 100, Height: 50, Instruction: "remove the stray logo"}}
	if _, err := client.Edit(context.Background(), ImageRef{URL: "https://example.com/a.png"}, regions); err != nil {
		t.Fatalf("Edit error: %v", err)
	}
	if len(captured.Regions) != 1 || captured.Regions[0].Instruction != "remove the stray logo" {
		t.Fatalf("regions not sent: %+v", captured.Regions)
	}
}

func TestClientQualityCheck(t *testing.T) {
	var captured enhanceRequest
	ts := newTestServer(t, &captured, func(path string) enhanceResponse {
		if path != "/quality/check" {
			t.Fatalf("unexpected path: %s", path)
		}
		return enhanceResponse{Verdict: &Verdict{Status: "warn", Summary: "text too small", Issues: []string{"body font below 8pt"}}}
	})
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIKey: "test-key"})
	v, err := client.QualityCheck(context.Background(), ImageRef{URL: "https://example.com/a.png"})
	if err != nil {
		t.Fatalf("QualityCheck error: %v", err)
	}
	if v.Status != "warn" || len(v.Issues) != 1 {
		t.Fatalf("verdict mismatch: %+v", v)
	}
}

func TestClientSuggestTags(t *testing.T) {
	var captured enhanceRequest
	ts := newTestServer(t, &captured, func(string) enhanceResponse {
		return enhanceResponse{Tags: []string{"bakery", "autumn"}}
	})
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIKey: "test-key"})
	tags, err := client.SuggestTags(context.Background(), ImageRef{Data: []byte{1}})
	if err != nil {
		t.Fatalf("SuggestTags error: %v", err)
	}
	if len(tags) != 2 || tags[0] != "bakery" {
		t.Fatalf("tags mismatch: %v", tags)
	}
}

func TestClientBackendError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(enhanceResponse{Code: "too_large", Message: "image exceeds limits"})
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIKey: "test-key"})
	_, err := client.RemoveText(context.Background(), ImageRef{Data: []byte{1}})
	if err == nil || !strings.Contains(err.Error(), "image exceeds limits") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestClientRequiresImage(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://localhost:0", APIKey: "k"})
	if _, err := client.Regenerate4K(context.Background(), ImageRef{}); err == nil {
		t.Fatalf("expected error when image ref is empty")
	}
}
