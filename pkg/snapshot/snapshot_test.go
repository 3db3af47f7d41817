package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSVGRender(t *testing.T) {
	a := Node{ID: uuid.New(), Label: "Mascot", X: 300, Y: 200, Persona: "ideaGenerator"}
	b := Node{ID: uuid.New(), Label: "Fox & <friends>", X: 450, Y: 320, Persona: "critic", Cancelled: true}
	g := Graph{Title: "Brand day", Nodes: []Node{a, b}, Edges: []Edge{{SourceID: a.ID, TargetID: b.ID}, {SourceID: a.ID, TargetID: uuid.New()}}}

	img, err := NewSVGRenderer().Capture(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, MIMETypeSVG, img.MIMEType)

	svg := string(img.Data)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "Fox &amp; &lt;friends&gt;")
	assert.Contains(t, svg, "Brand day")
	assert.Equal(t, 1, strings.Count(svg, "<line"))
	assert.Contains(t, svg, personaColors["ideaGenerator"])
	assert.Contains(t, svg, "line-through")
}

func TestSVGRenderEmpty(t *testing.T) {
	svg := string(NewSVGRenderer().Render(Graph{}))
	assert.Contains(t, svg, `width="560"`)
	assert.NotContains(t, svg, "<line")
}

type failingProvider struct{}

func (failingProvider) Capture(ctx context.Context, graph Graph) (*Image, error) {
	return nil, errors.New("chrome unreachable")
}

func TestFallback(t *testing.T) {
	img, err := NewFallback(failingProvider{}, NewSVGRenderer()).Capture(context.Background(), Graph{})
	require.NoError(t, err)
	assert.Equal(t, MIMETypeSVG, img.MIMEType)

	_, err = NewFallback(failingProvider{}, nil).Capture(context.Background(), Graph{})
	assert.Error(t, err)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, "/uploads/summaries/")

	url, err := store.Save(context.Background(), "../escape", &Image{Data: []byte("<svg/>"), MIMEType: MIMETypeSVG})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/summaries/escape.svg", url)

	data, err := os.ReadFile(filepath.Join(dir, "escape.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	_, err = store.Save(context.Background(), "empty", &Image{})
	assert.Error(t, err)
}
