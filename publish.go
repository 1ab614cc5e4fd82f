package thaplmagic

import (
	"context"
)

// SourceTag identifies payloads published by this package.
const SourceTag = "ThaplMagic.Thapl"

// MIMEPlainText is the MIME type of published engine logs.
const MIMEPlainText = "text/plain"

// mimeTypes maps the known output formats to MIME types.
var mimeTypes = map[string]string{
	FormatPNG:  "image/png",
	FormatSVG:  "image/svg+xml",
	FormatJPG:  "image/jpeg",
	FormatJPEG: "image/jpeg",
}

// MIMEType returns the MIME type of an output format, "image/<format>"
// for formats outside the known set.
func MIMEType(format string) string {
	if mime, ok := mimeTypes[format]; ok {
		return mime
	}
	return "image/" + format
}

// DisplayPayload is one unit of display data handed to a Publisher.
type DisplayPayload struct {
	Source   string            // SourceTag
	Data     map[string][]byte // MIME type -> raw bytes
	Metadata map[string]any    // nil unless the host must isolate the output
}

// Publisher is the display collaborator. The payload is not retained by
// the Service after Publish returns.
type Publisher interface {
	Publish(ctx context.Context, p DisplayPayload) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, p DisplayPayload) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, p DisplayPayload) error {
	return f(ctx, p)
}

// isolatedMetadata asks the host to sandbox an SVG (e.g. in an iframe) so
// glyph and id declarations of several images do not clash.
func isolatedMetadata() map[string]any {
	return map[string]any{"isolated": "true"}
}
