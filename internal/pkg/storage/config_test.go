package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredStorageEnv(t *testing.T) {
	t.Setenv("S3_ACCESS_KEY_ID", "key-id")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "panelflow-pages")
}

func TestLoadConfigRequiresCredentials(t *testing.T) {
	t.Setenv("S3_ACCESS_KEY_ID", "")
	t.Setenv("S3_SECRET_ACCESS_KEY", "")
	t.Setenv("S3_BUCKET_NAME", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigTrimsPublicBaseURL(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("S3_PUBLIC_BASE_URL", "https://cdn.panelflow.app/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.panelflow.app", cfg.PublicBaseURL)
}

func TestPageObjectKeyLayout(t *testing.T) {
	key := PageObjectKey(7, "aaaa-bbbb", "cccc-dddd", "eeee-ffff", ".png")
	assert.Equal(t, "7/aaaa-bbbb/cccc-dddd/eeee-ffff.png", key)

	// Extension may arrive with or without the leading dot
	key = PageObjectKey(7, "aaaa-bbbb", "cccc-dddd", "eeee-ffff", "png")
	assert.Equal(t, "7/aaaa-bbbb/cccc-dddd/eeee-ffff.png", key)
}

func TestCoverObjectKeyLayout(t *testing.T) {
	key := CoverObjectKey(7, "aaaa-bbbb", "eeee-ffff", ".jpg")
	assert.Equal(t, "7/aaaa-bbbb/cover/eeee-ffff.jpg", key)
}

func TestPublicURLPrefersCDN(t *testing.T) {
	cfg := &Config{
		BucketName:    "panelflow-pages",
		Region:        "us-west-001",
		PublicBaseURL: "https://cdn.panelflow.app",
	}
	assert.Equal(t, "https://cdn.panelflow.app/1/s/c/p.jpg", cfg.PublicURL("1/s/c/p.jpg"))
}

func TestPublicURLPathStyleForCustomEndpoint(t *testing.T) {
	cfg := &Config{
		BucketName:  "panelflow-pages",
		Region:      "us-west-001",
		EndpointURL: "https://s3.us-west-001.backblazeb2.com/",
	}
	assert.Equal(t, "https://s3.us-west-001.backblazeb2.com/panelflow-pages/1/s/c/p.jpg", cfg.PublicURL("1/s/c/p.jpg"))
}

func TestPublicURLVirtualHostedAWS(t *testing.T) {
	cfg := &Config{
		BucketName: "panelflow-pages",
		Region:     "eu-central-1",
	}
	assert.Equal(t, "https://panelflow-pages.s3.eu-central-1.amazonaws.com/1/s/c/p.jpg", cfg.PublicURL("1/s/c/p.jpg"))
}
