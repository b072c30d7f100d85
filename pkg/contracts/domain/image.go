package domain

import (
	"encoding/base64"
)

// MIMETypePNG is the only image format the chart renderer produces.
const MIMETypePNG = "image/png"

// ImagePayload is an encoded chart kept in memory until the report embeds it.
type ImagePayload struct {
	MIMEType    string `json:"mime_type"`
	Data        []byte `json:"-"`
	Placeholder bool   `json:"placeholder"`
}

// DataURI encodes the payload for inline embedding.
func (p ImagePayload) DataURI() string {
	mime := p.MIMEType
	if mime == "" {
		mime = MIMETypePNG
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Empty reports whether the payload carries no image bytes.
func (p ImagePayload) Empty() bool {
	return len(p.Data) == 0
}
