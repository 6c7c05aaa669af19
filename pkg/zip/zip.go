// Package zip builds downloadable archives of generated flyers.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets packs the assets into a zip archive held in memory. Entries
// without a file extension get one inferred from their MIME type; duplicate
// names are suffixed so no entry is silently overwritten.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	used := make(map[string]int)
	for _, asset := range assets {
		name := entryName(asset, used)
		w, err := zw.Create(name)
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	if err := zw.Close(); err != nil {
		return nil
	}
	return buf.Bytes()
}

func entryName(asset Asset, used map[string]int) string {
	name := asset.Filename
	if name == "" {
		name = "flyer"
	}
	if !strings.Contains(name, ".") {
		name += extensionForMIME(asset.MIME)
	}
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	if dot := strings.LastIndex(name, "."); dot > 0 {
		return fmt.Sprintf("%s-%d%s", name[:dot], n, name[dot:])
	}
	return fmt.Sprintf("%s-%d", name, n)
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
