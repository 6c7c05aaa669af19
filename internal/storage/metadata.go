package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"flyerstudio/internal/domain"
)

// PGMetadataStore mirrors history item metadata and asset collections into
// PostgreSQL. It performs id-keyed upserts only; the in-memory history store
// stays authoritative for the session and never reads back from here except
// at startup.
type PGMetadataStore struct {
	pool *pgxpool.Pool
}

// NewPGMetadataStore creates a metadata store backed by the given pool.
func NewPGMetadataStore(pool *pgxpool.Pool) *PGMetadataStore {
	return &PGMetadataStore{pool: pool}
}

// EnsureSchema creates the mirror tables when missing.
func (s *PGMetadataStore) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS history_items (
	id                TEXT PRIMARY KEY,
	remote_url        TEXT NOT NULL DEFAULT '',
	tags              JSONB NOT NULL DEFAULT '[]',
	is_favorite       BOOLEAN NOT NULL DEFAULT FALSE,
	is_upscaled       BOOLEAN NOT NULL DEFAULT FALSE,
	upscale_scale     INT NOT NULL DEFAULT 0,
	is_edited         BOOLEAN NOT NULL DEFAULT FALSE,
	is_4k_regenerated BOOLEAN NOT NULL DEFAULT FALSE,
	image_size        TEXT NOT NULL DEFAULT '',
	side              TEXT NOT NULL DEFAULT '',
	job_id            TEXT NOT NULL DEFAULT '',
	derived_from_id   TEXT NOT NULL DEFAULT '',
	quality_json      JSONB,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS asset_collections (
	kind       TEXT PRIMARY KEY,
	items_json JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("metadata store: ensure schema: %w", err)
	}
	return nil
}

// UpsertItem writes the metadata fields of one history item. Image payloads
// stay in the object store; only the reference and flags are mirrored.
func (s *PGMetadataStore) UpsertItem(ctx context.Context, item domain.HistoryItem) error {
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("metadata store: marshal tags: %w", err)
	}
	var quality []byte
	if item.QualityCheck != nil {
		quality, err = json.Marshal(item.QualityCheck)
		if err != nil {
			return fmt.Errorf("metadata store: marshal quality: %w", err)
		}
	}
	const query = `
INSERT INTO history_items (
	id, remote_url, tags, is_favorite, is_upscaled, upscale_scale,
	is_edited, is_4k_regenerated, image_size, side, job_id, derived_from_id,
	quality_json, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
ON CONFLICT (id) DO UPDATE SET
	remote_url        = EXCLUDED.remote_url,
	tags              = EXCLUDED.tags,
	is_favorite       = EXCLUDED.is_favorite,
	is_upscaled       = EXCLUDED.is_upscaled,
	upscale_scale     = EXCLUDED.upscale_scale,
	is_edited         = EXCLUDED.is_edited,
	is_4k_regenerated = EXCLUDED.is_4k_regenerated,
	image_size        = EXCLUDED.image_size,
	side              = EXCLUDED.side,
	quality_json      = EXCLUDED.quality_json,
	updated_at        = NOW();`
	_, err = s.pool.Exec(ctx, query,
		item.ID,
		item.RemoteURL,
		tags,
		item.IsFavorite,
		item.IsUpscaled,
		item.UpscaleScale,
		item.IsEdited,
		item.Is4KRegenerate,
		item.ImageSize,
		item.Side,
		item.JobID,
		item.DerivedFromID,
		quality,
		item.CreatedAt,
	)
	return err
}

// DeleteItem removes the mirrored record for id. Missing rows are not an
// error; the item may never have been mirrored.
func (s *PGMetadataStore) DeleteItem(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM history_items WHERE id = $1`, id)
	return err
}

// SaveAssets replaces the stored collection for one asset kind.
func (s *PGMetadataStore) SaveAssets(ctx context.Context, kind string, assets []domain.AssetImage) error {
	// Payload bytes are stripped before mirroring; the document store keeps
	// names and references only.
	light := make([]domain.AssetImage, len(assets))
	for i, a := range assets {
		light[i] = domain.AssetImage{ID: a.ID, Name: a.Name, MIME: a.MIME, URL: a.URL}
	}
	body, err := json.Marshal(light)
	if err != nil {
		return fmt.Errorf("metadata store: marshal assets: %w", err)
	}
	const query = `
INSERT INTO asset_collections (kind, items_json, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (kind) DO UPDATE SET items_json = EXCLUDED.items_json, updated_at = NOW();`
	_, err = s.pool.Exec(ctx, query, kind, body)
	return err
}

var _ MetadataStore = (*PGMetadataStore)(nil)
