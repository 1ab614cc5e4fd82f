package thaplmagic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// JSONPublisher writes one Jupyter display_data content object per line.
// Text and SVG payloads are strings; other binary payloads are base64, as
// the Jupyter messaging protocol expects.
type JSONPublisher struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONPublisher creates a publisher writing to w.
func NewJSONPublisher(w io.Writer) *JSONPublisher {
	return &JSONPublisher{enc: json.NewEncoder(w)}
}

// jsonDisplayData mirrors the content of a Jupyter display_data message.
type jsonDisplayData struct {
	Source   string            `json:"source"`
	Data     map[string]string `json:"data"`
	Metadata map[string]any    `json:"metadata"`
}

// Publish encodes p as a single JSON line. Safe for concurrent use.
func (p *JSONPublisher) Publish(_ context.Context, payload DisplayPayload) error {
	msg := jsonDisplayData{
		Source:   payload.Source,
		Data:     make(map[string]string, len(payload.Data)),
		Metadata: payload.Metadata,
	}
	if msg.Metadata == nil {
		msg.Metadata = map[string]any{}
	}
	for mime, data := range payload.Data {
		if isTextMIME(mime) {
			msg.Data[mime] = string(data)
		} else {
			msg.Data[mime] = base64.StdEncoding.EncodeToString(data)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enc.Encode(msg); err != nil {
		return fmt.Errorf("encoding display data: %w", err)
	}
	return nil
}

// isTextMIME reports whether a payload travels as text in JSON.
func isTextMIME(mime string) bool {
	return strings.HasPrefix(mime, "text/") || mime == "image/svg+xml" ||
		strings.HasSuffix(mime, "+json") || mime == "application/json"
}
