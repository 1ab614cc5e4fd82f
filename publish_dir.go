package thaplmagic

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alnah/go-thaplmagic/internal/fileutil"
	"github.com/alnah/go-thaplmagic/internal/yamlutil"
)

// DirPublisher writes each payload entry to "<dir>/<stem>.<ext>" and a
// "<stem>.meta.yaml" sidecar describing what was written.
type DirPublisher struct {
	dir  string
	stem string
}

// NewDirPublisher creates a publisher writing into dir, which must exist.
// An empty stem defaults to DefaultArtifactName.
func NewDirPublisher(dir, stem string) *DirPublisher {
	if stem == "" {
		stem = DefaultArtifactName
	}
	return &DirPublisher{dir: dir, stem: stem}
}

// dirSidecar is the YAML layout of the .meta.yaml file.
type dirSidecar struct {
	Source   string            `yaml:"source"`
	Files    map[string]string `yaml:"files"`
	Metadata map[string]any    `yaml:"metadata,omitempty"`
}

// Publish writes every entry of p. The first write error aborts.
func (p *DirPublisher) Publish(_ context.Context, payload DisplayPayload) error {
	mimes := make([]string, 0, len(payload.Data))
	for mime := range payload.Data {
		mimes = append(mimes, mime)
	}
	sort.Strings(mimes)

	sidecar := dirSidecar{
		Source:   payload.Source,
		Files:    make(map[string]string, len(mimes)),
		Metadata: payload.Metadata,
	}
	for _, mime := range mimes {
		name := p.stem + "." + extensionFor(mime)
		if err := fileutil.WriteFile(filepath.Join(p.dir, name), payload.Data[mime]); err != nil {
			return err
		}
		sidecar.Files[mime] = name
	}

	meta, err := yamlutil.Marshal(sidecar)
	if err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}
	return fileutil.WriteFile(filepath.Join(p.dir, p.stem+".meta.yaml"), meta)
}

// extensionFor maps a published MIME type back to a file extension.
func extensionFor(mime string) string {
	switch mime {
	case MIMEPlainText:
		return "log"
	case "image/svg+xml":
		return FormatSVG
	case "image/jpeg":
		return FormatJPG
	}
	if ext, ok := strings.CutPrefix(mime, "image/"); ok && fileutil.ValidateExtension(ext) == nil {
		return ext
	}
	return "bin"
}
