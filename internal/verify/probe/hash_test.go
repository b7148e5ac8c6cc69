package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMMH3OfContent_Deterministic(t *testing.T) {
	a := mmh3OfContent([]byte("favicon bytes"))
	b := mmh3OfContent([]byte("favicon bytes"))
	assert.Equal(t, a, b)

	c := mmh3OfContent([]byte("different bytes"))
	assert.NotEqual(t, a, c)
}

func TestMMH3OfImageContent_DiffersFromFaviconPath(t *testing.T) {
	content := make([]byte, 200)
	for i := range content {
		content[i] = byte('a' + i%26)
	}

	favicon := mmh3OfContent(content)
	image := mmh3OfImageContent(content)
	assert.NotEqual(t, favicon, image, "image mmh3 must not line-wrap its base64 encoding like the favicon path")
}

func TestMMH3OfImageContent_Deterministic(t *testing.T) {
	a := mmh3OfImageContent([]byte("image bytes"))
	b := mmh3OfImageContent([]byte("image bytes"))
	assert.Equal(t, a, b)
}

func TestBase64EncodeBytes_WrapsAt76Chars(t *testing.T) {
	content := make([]byte, 200)
	for i := range content {
		content[i] = byte('a' + i%26)
	}
	encoded := base64EncodeBytes(content)

	lineCount := 0
	lineLen := 0
	for _, b := range encoded {
		if b == '\n' {
			assert.LessOrEqual(t, lineLen, 76)
			lineLen = 0
			lineCount++
			continue
		}
		lineLen++
	}
	assert.Greater(t, lineCount, 1)
}

func TestSHA256Hex_KnownValue(t *testing.T) {
	got := sha256Hex([]byte(""))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
	assert.Len(t, got, 64)
}

func TestMD5Hex_KnownValue(t *testing.T) {
	got := md5Hex([]byte(""))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", got)
}

func TestPhashDistance_IdenticalHashesAreZero(t *testing.T) {
	img := solidColorPNG(t, 64, 64)
	hash, err := phashOfContent(img)
	require.NoError(t, err)

	distance, err := phashDistance(hash, hash)
	require.NoError(t, err)
	assert.Equal(t, 0, distance)
}
