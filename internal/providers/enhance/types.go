package enhance

import "context"

// ImageRef points at an image either by raw payload or by URL; providers
// accept both.
type ImageRef struct {
	Data []byte
	MIME string
	URL  string
}

// Result is one derived image returned by an enhancement operation.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// EditRegion is one region+instruction pair for a manual edit call.
type EditRegion struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Instruction string `json:"instruction"`
}

// Verdict is the structured outcome of a quality inspection.
type Verdict struct {
	Status  string   `json:"status"`
	Summary string   `json:"summary"`
	Issues  []string `json:"issues,omitempty"`
}

// Service is the contract the post-processing pipeline depends on. Every
// method is a single request/response call against an external collaborator;
// retries and timeouts are the implementation's concern.
type Service interface {
	Upscale(ctx context.Context, img ImageRef, scale int) (Result, error)
	Regenerate4K(ctx context.Context, img ImageRef) (Result, error)
	Edit(ctx context.Context, img ImageRef, regions []EditRegion) (Result, error)
	RemoveText(ctx context.Context, img ImageRef) (Result, error)
	QualityCheck(ctx context.Context, img ImageRef) (Verdict, error)
	SuggestTags(ctx context.Context, img ImageRef) ([]string, error)
}
