package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegHead = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngHead  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}
	gifHead  = []byte("GIF89a")
)

func TestValidateImageBySniffAcceptsKnownFormats(t *testing.T) {
	cases := []struct {
		filename string
		head     []byte
		wantMime string
	}{
		{"page01.jpg", jpegHead, "image/jpeg"},
		{"page01.jpeg", jpegHead, "image/jpeg"},
		{"cover.png", pngHead, "image/png"},
		{"panel.gif", gifHead, "image/gif"},
	}

	for _, tc := range cases {
		mime, err := ValidateImageBySniff(tc.filename, tc.head)
		require.NoError(t, err, tc.filename)
		assert.Equal(t, tc.wantMime, mime, tc.filename)
	}
}

func TestValidateImageBySniffRejectsDisallowedExtension(t *testing.T) {
	_, err := ValidateImageBySniff("page.svg", []byte("<svg></svg>"))
	require.Error(t, err)

	_, err = ValidateImageBySniff("page.pdf", []byte("%PDF-1.4"))
	require.Error(t, err)

	_, err = ValidateImageBySniff("page", jpegHead)
	require.Error(t, err)
}

func TestValidateImageBySniffRejectsScriptableContent(t *testing.T) {
	// Correct extension but HTML payload
	_, err := ValidateImageBySniff("page.png", []byte("<!DOCTYPE html><html><script>alert(1)</script>"))
	require.Error(t, err)

	// XML payload smuggled under an image extension
	_, err = ValidateImageBySniff("page.jpg", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`))
	require.Error(t, err)
}

func TestValidateImageBySniffAllowsOctetStreamByExtension(t *testing.T) {
	// AVIF sniffs as octet-stream on older Go versions, extension decides
	head := []byte{0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p', 'a', 'v', 'i', 'f'}
	mime, err := ValidateImageBySniff("page.avif", head)
	require.NoError(t, err)
	assert.NotEmpty(t, mime)
}
