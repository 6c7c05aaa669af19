package flyergen

import (
	"context"

	"flyerstudio/internal/domain"
)

// Request describes one normalized generation call. Exactly one of the
// content blocks is consulted, selected by Mode; the others may be zero.
type Request struct {
	Mode         domain.GenerationMode
	APIKey       string
	PatternCount int
	ImageSize    string

	Products       []domain.Product
	Campaign       domain.CampaignInfo
	ProductService domain.ProductServiceInfo
	SalesLetter    domain.SalesLetterInfo
	Assets         domain.AssetSelection
}

// Image is one generated flyer payload.
type Image struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Generator is the contract implemented by generation backends. A nil error
// with zero images is treated by callers as a total failure.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Image, error)
}

// FromSnapshot builds the generation request for a frozen job snapshot.
func FromSnapshot(snap domain.Snapshot) Request {
	count := snap.Form.PatternCount
	if count <= 0 {
		count = 1
	}
	return Request{
		Mode:           snap.Mode(),
		APIKey:         snap.APIKey,
		PatternCount:   count,
		ImageSize:      snap.Form.ImageSize,
		Products:       snap.Form.Products,
		Campaign:       snap.Form.Campaign,
		ProductService: snap.Form.ProductService,
		SalesLetter:    snap.Form.SalesLetter,
		Assets:         snap.Form.Assets,
	}
}
