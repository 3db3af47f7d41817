// Package snapshot renders a still image of a session's concept graph.
package snapshot

import (
	"context"

	"github.com/google/uuid"
)

const (
	MIMETypeSVG = "image/svg+xml"
	MIMETypePNG = "image/png"
)

type Node struct {
	ID        uuid.UUID
	Label     string
	X         float64
	Y         float64
	Persona   string
	Cancelled bool
	Highlight string
}

type Edge struct {
	SourceID uuid.UUID
	TargetID uuid.UUID
}

type Graph struct {
	Title string
	Nodes []Node
	Edges []Edge
}

type Image struct {
	Data     []byte
	MIMEType string
}

// Provider captures a graph as an image.
type Provider interface {
	Capture(ctx context.Context, graph Graph) (*Image, error)
}

// AssetStore persists generated images and returns a URL clients can fetch.
type AssetStore interface {
	Save(ctx context.Context, name string, img *Image) (string, error)
}

// Extension returns the file extension for a MIME type.
func Extension(mimeType string) string {
	switch mimeType {
	case MIMETypePNG:
		return ".png"
	case MIMETypeSVG:
		return ".svg"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ".bin"
}
