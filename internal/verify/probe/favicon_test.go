package probe

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidColorPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDiscoverFaviconPath_IconRelFirst(t *testing.T) {
	html := `<html><head><link rel="icon" href="/assets/favicon.png"></head></html>`
	assert.Equal(t, "/assets/favicon.png", discoverFaviconPath(html))
}

func TestDiscoverFaviconPath_HrefBeforeRel(t *testing.T) {
	html := `<link href="/static/icon.png" rel="shortcut icon">`
	assert.Equal(t, "/static/icon.png", discoverFaviconPath(html))
}

func TestDiscoverFaviconPath_AppleTouchIcon(t *testing.T) {
	html := `<link rel="apple-touch-icon" href="/apple-icon.png">`
	assert.Equal(t, "/apple-icon.png", discoverFaviconPath(html))
}

func TestDiscoverFaviconPath_AbsoluteURL(t *testing.T) {
	html := `<link rel="icon" href="https://cdn.example.com/favicon.ico">`
	assert.Equal(t, "/favicon.ico", discoverFaviconPath(html))
}

func TestDiscoverFaviconPath_ProtocolRelative(t *testing.T) {
	html := `<link rel="icon" href="//cdn.example.com/icons/fav.png">`
	assert.Equal(t, "/icons/fav.png", discoverFaviconPath(html))
}

func TestDiscoverFaviconPath_RelativeHref(t *testing.T) {
	html := `<link rel="icon" href="fav.png">`
	assert.Equal(t, "/fav.png", discoverFaviconPath(html))
}

func TestDiscoverFaviconPath_NoLinkTagFallsBack(t *testing.T) {
	assert.Equal(t, "/favicon.ico", discoverFaviconPath("<html><body>no icon here</body></html>"))
}
