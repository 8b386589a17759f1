package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "miniapp-shop-api/config"
)

func TestLocal_Save(t *testing.T) {
	dir := t.TempDir()
	p, err := New(context.Background(), &appconfig.Config{StorageProvider: "local", UploadDir: dir})
	require.NoError(t, err)

	url, err := p.Save(context.Background(), strings.NewReader("png-bytes"), "photo.PNG", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	raw, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(raw))
}

func TestLocal_RejectsUnknownExtension(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.Save(context.Background(), strings.NewReader("x"), "run.sh", "")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNew_S3PublicURL(t *testing.T) {
	p, err := NewS3(context.Background(), appconfig.S3Config{
		Bucket: "shop", Region: "eu-central-1", Endpoint: "http://minio:9000", AccessKey: "k", SecretKey: "s",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/shop", p.publicURL)

	_, err = New(context.Background(), &appconfig.Config{StorageProvider: "ftp"})
	assert.Error(t, err)
}

func TestDetectImage(t *testing.T) {
	png := strings.NewReader("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	ct, ext, err := DetectImage(png)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)
	pos, _ := png.Seek(0, io.SeekCurrent)
	assert.Zero(t, pos, "reader is rewound for the upload")

	_, _, err = DetectImage(strings.NewReader("#!/bin/sh\necho hi\n"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
