package snapshot

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeRasterizer turns the SVG rendering into a PNG using a remote headless Chrome.
type ChromeRasterizer struct {
	wsURL   string
	svg     *SVGRenderer
	timeout time.Duration
}

func NewChromeRasterizer(wsURL string, timeout time.Duration) *ChromeRasterizer {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ChromeRasterizer{wsURL: wsURL, svg: NewSVGRenderer(), timeout: timeout}
}

func (r *ChromeRasterizer) Capture(ctx context.Context, graph Graph) (*Image, error) {
	svg := r.svg.Render(graph)
	minX, minY, maxX, maxY := bounds(graph.Nodes)
	width := int64(math.Ceil(maxX - minX + 2*padding))
	height := int64(math.Ceil(maxY - minY + 2*padding))

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, r.wsURL)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	dataURL := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)

	var buf []byte
	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(width, height),
		chromedp.Navigate(dataURL),
		chromedp.FullScreenshot(&buf, 100),
	); err != nil {
		return nil, fmt.Errorf("rasterize snapshot: %w", err)
	}

	return &Image{Data: buf, MIMEType: MIMETypePNG}, nil
}

// Fallback tries primary first and uses secondary when it fails.
type Fallback struct {
	primary   Provider
	secondary Provider
}

func NewFallback(primary, secondary Provider) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Capture(ctx context.Context, graph Graph) (*Image, error) {
	img, err := f.primary.Capture(ctx, graph)
	if err == nil {
		return img, nil
	}
	if f.secondary == nil {
		return nil, err
	}
	return f.secondary.Capture(ctx, graph)
}
