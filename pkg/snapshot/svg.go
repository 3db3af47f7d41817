package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/google/uuid"
)

const (
	padding    = 80.0
	nodeHeight = 36.0
	charWidth  = 7.5
)

var personaColors = map[string]string{
	"ideaGenerator": "#f59e0b",
	"critic":        "#ef4444",
	"facilitator":   "#3b82f6",
	"goalKeeper":    "#10b981",
}

const defaultColor = "#6b7280"

// SVGRenderer draws the graph at its stored positions. Node colors follow the persona tag.
type SVGRenderer struct{}

func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{}
}

func (r *SVGRenderer) Capture(ctx context.Context, graph Graph) (*Image, error) {
	return &Image{Data: r.Render(graph), MIMEType: MIMETypeSVG}, nil
}

func (r *SVGRenderer) Render(graph Graph) []byte {
	minX, minY, maxX, maxY := bounds(graph.Nodes)
	width := px(maxX - minX + 2*padding)
	height := px(maxY - minY + 2*padding)
	shiftX := padding - minX
	shiftY := padding - minY

	byID := make(map[uuid.UUID]Node, len(graph.Nodes))
	for _, n := range graph.Nodes {
		byID[n.ID] = n
	}

	var b bytes.Buffer
	canvas := svg.New(&b)
	canvas.Start(width, height, fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height))
	canvas.Rect(0, 0, width, height, `fill="#ffffff"`)
	if graph.Title != "" {
		canvas.Text(16, 28, graph.Title, `font-family="sans-serif"`, `font-size="18"`, `font-weight="bold"`, `fill="#111827"`)
	}

	canvas.Group(`stroke="#9ca3af"`, `stroke-width="2"`)
	for _, e := range graph.Edges {
		src, ok1 := byID[e.SourceID]
		dst, ok2 := byID[e.TargetID]
		if !ok1 || !ok2 {
			continue
		}
		canvas.Line(px(src.X+shiftX), px(src.Y+shiftY), px(dst.X+shiftX), px(dst.Y+shiftY))
	}
	canvas.Gend()

	for _, n := range graph.Nodes {
		color, ok := personaColors[n.Persona]
		if !ok {
			color = defaultColor
		}
		w := nodeWidth(n.Label)
		x := n.X + shiftX - w/2
		y := n.Y + shiftY - nodeHeight/2

		opacity := "1"
		if n.Cancelled {
			opacity = "0.4"
		}
		stroke := color
		if n.Highlight != "" {
			stroke = "#111827"
		}

		canvas.Group(fmt.Sprintf(`opacity="%s"`, opacity))
		canvas.Roundrect(px(x), px(y), px(w), px(nodeHeight), 10, 10,
			fmt.Sprintf(`fill="%s"`, color), `fill-opacity="0.15"`, fmt.Sprintf(`stroke="%s"`, stroke), `stroke-width="2"`)
		attrs := []string{`font-family="sans-serif"`, `font-size="13"`, `text-anchor="middle"`, `dominant-baseline="middle"`, `fill="#111827"`}
		if n.Cancelled {
			attrs = append(attrs, `text-decoration="line-through"`)
		}
		canvas.Text(px(n.X+shiftX), px(n.Y+shiftY), n.Label, attrs...)
		canvas.Gend()
	}

	canvas.End()
	return b.Bytes()
}

func px(v float64) int {
	return int(math.Round(v))
}

func nodeWidth(label string) float64 {
	return math.Max(80, float64(len([]rune(label)))*charWidth+24)
}

func bounds(nodes []Node) (minX, minY, maxX, maxY float64) {
	if len(nodes) == 0 {
		return 0, 0, 400, 200
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		half := nodeWidth(n.Label) / 2
		minX = math.Min(minX, n.X-half)
		maxX = math.Max(maxX, n.X+half)
		minY = math.Min(minY, n.Y-nodeHeight/2)
		maxY = math.Max(maxY, n.Y+nodeHeight/2)
	}
	return minX, minY, maxX, maxY
}
