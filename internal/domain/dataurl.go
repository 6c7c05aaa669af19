package domain

import (
	"encoding/base64"
	"strings"
)

// EncodeDataURI renders an image payload as a data URI, the local
// representation used for history item payloads before (or instead of) a
// remote upload.
func EncodeDataURI(mime string, data []byte) string {
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI extracts the payload and MIME type from a data URI. Returns
// ok=false for anything that is not a base64 data URI.
func DecodeDataURI(s string) (data []byte, mime string, ok bool) {
	if !strings.HasPrefix(s, "data:") {
		return nil, "", false
	}
	rest := s[len("data:"):]
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return nil, "", false
	}
	mime = rest[:sep]
	payload := rest[sep+len(";base64,"):]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	return data, mime, true
}
