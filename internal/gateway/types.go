package gateway

import "time"

// FileField is the multipart field carrying the fingerprint image.
const FileField = "file"

// ProcessResponse is the envelope of POST /process-fingerprint. Exactly one
// of the fields is set.
type ProcessResponse struct {
	ProcessedImage string `json:"processedImage,omitempty" cbor:"processedImage,omitempty"`
	Detail         string `json:"detail,omitempty" cbor:"detail,omitempty"`
}

type HealthResponse struct {
	Status string    `json:"status" cbor:"status"`
	Time   time.Time `json:"time" cbor:"time"`
}
