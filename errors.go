package thaplmagic

import "errors"

// Sentinel errors for argument resolution.
var (
	ErrInvalidArguments = errors.New("invalid cell arguments")
	ErrInvalidSize      = errors.New("invalid size")
	ErrInvalidScale     = errors.New("invalid scale")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrUnknownEncoding  = errors.New("unknown encoding")
)

// Sentinel errors for the render pipeline.
// Only ErrWorkspace and ErrPublish are returned by Service.Run; the others
// classify diagnostics and are never returned to the caller.
var (
	ErrRenderFailed     = errors.New("LaTeX rendering failed")
	ErrConversionFailed = errors.New("image conversion failed")
	ErrArtifactMissing  = errors.New("no image generated")
	ErrLogUnreadable    = errors.New("no log file generated")
	ErrInvalidSVG       = errors.New("invalid SVG document")
	ErrWorkspace        = errors.New("failed to prepare workspace")
	ErrPublish          = errors.New("failed to publish display data")
)
