package probe

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"github.com/spaolacci/murmur3"
)

// mmh3OfContent reproduces the Shodan-style favicon hash: base64
// encode the raw bytes (using the same line-wrapped encoding Python's
// base64.encodebytes produces, newline included every 76 chars), then
// take MurmurHash3(32-bit, seed 0) of the resulting bytes, interpreted
// as a signed int32.
func mmh3OfContent(content []byte) int32 {
	encoded := base64EncodeBytes(content)
	h := murmur3.Sum32(encoded)
	return int32(h)
}

// mmh3OfImageContent computes the same MurmurHash3 construction as
// mmh3OfContent but over plain, unwrapped base64 (Python's
// base64.b64encode), matching the original tool's separate image-hash
// mmh3 path, which never line-wraps.
func mmh3OfImageContent(content []byte) int32 {
	encoded := []byte(base64.StdEncoding.EncodeToString(content))
	h := murmur3.Sum32(encoded)
	return int32(h)
}

// base64EncodeBytes mirrors Python's base64.encodebytes: standard
// base64 with a trailing newline inserted every 76 encoded
// characters, plus a final trailing newline. Shodan computes its
// favicon hash over this exact representation, not over plain
// base64.StdEncoding output.
func base64EncodeBytes(content []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(content)
	var buf bytes.Buffer
	for i := 0; i < len(encoded); i += 76 {
		end := i + 76
		if end > len(encoded) {
			end = len(encoded)
		}
		buf.WriteString(encoded[i:end])
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// sha256Hex and md5Hex hash raw content for the exact-match hash types.
func sha256Hex(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func md5Hex(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

// phashOfContent decodes content as an image and computes its 64-bit
// perceptual hash, returned in goimagehash's hex string form.
func phashOfContent(content []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("compute phash: %w", err)
	}
	return hash.ToString(), nil
}

// phashDistance returns the Hamming distance between two hex-encoded
// perceptual hashes. A match is distance <= 10 (out of 64 bits).
func phashDistance(expectedHex, actualHex string) (int, error) {
	expected, err := goimagehash.ImageHashFromString(expectedHex)
	if err != nil {
		return 0, fmt.Errorf("parse expected phash: %w", err)
	}
	actual, err := goimagehash.ImageHashFromString(actualHex)
	if err != nil {
		return 0, fmt.Errorf("parse actual phash: %w", err)
	}
	return expected.Distance(actual)
}
