package domain

import "time"

// QualityStatus enumerates quality-check outcomes for a history item.
type QualityStatus string

const (
	QualityPending QualityStatus = "pending"
	QualityPass    QualityStatus = "pass"
	QualityWarn    QualityStatus = "warn"
	QualityFail    QualityStatus = "fail"
	QualityError   QualityStatus = "error"
)

// QualityCheck records the verdict of an automated quality inspection. A
// dispatched check always reaches one of the terminal statuses; Error marks a
// check whose inspection call itself failed.
type QualityCheck struct {
	Status    QualityStatus `json:"status"`
	Summary   string        `json:"summary,omitempty"`
	Issues    []string      `json:"issues,omitempty"`
	CheckedAt time.Time     `json:"checked_at,omitempty"`
}

// HistoryItem is one generated, derived or uploaded flyer image plus its
// metadata. The ID doubles as the storage key once the image is persisted
// remotely. Derived items (upscale, 4K regen, edit, text removal) are appended
// as new entries referencing their origin via DerivedFromID; pixels are never
// rewritten in place.
type HistoryItem struct {
	ID             string        `json:"id"`
	Data           string        `json:"data"`
	Thumbnail      string        `json:"thumbnail,omitempty"`
	RemoteURL      string        `json:"remote_url,omitempty"`
	Tags           []string      `json:"tags,omitempty"`
	IsFavorite     bool          `json:"is_favorite,omitempty"`
	IsUpscaled     bool          `json:"is_upscaled,omitempty"`
	UpscaleScale   int           `json:"upscale_scale,omitempty"`
	IsEdited       bool          `json:"is_edited,omitempty"`
	Is4KRegenerate bool          `json:"is_4k_regenerated,omitempty"`
	ImageSize      string        `json:"image_size,omitempty"`
	Side           FlyerSide     `json:"side,omitempty"`
	JobID          string        `json:"job_id,omitempty"`
	DerivedFromID  string        `json:"derived_from_id,omitempty"`
	QualityCheck   *QualityCheck `json:"quality_check,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Clone returns an independent copy of the item. Stores hand out only clones
// so concurrent post-processing flows never share mutable slices.
func (h HistoryItem) Clone() HistoryItem {
	out := h
	out.Tags = append([]string(nil), h.Tags...)
	if h.QualityCheck != nil {
		qc := *h.QualityCheck
		qc.Issues = append([]string(nil), h.QualityCheck.Issues...)
		out.QualityCheck = &qc
	}
	return out
}

// HasTag reports whether the item carries the given tag.
func (h HistoryItem) HasTag(tag string) bool {
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
