package service

import (
	"context"
	"strings"
	"testing"

	"github.com/okumurakoki/contractguard-sub001/config"
	"github.com/stretchr/testify/require"
)

var _ BlobStore = (*MinioService)(nil)

func TestNewMinioService(t *testing.T) {
	cfg := &config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "contracts",
		UseSSL:    false,
	}

	// Client construction does not dial; the connection is exercised on
	// first operation.
	svc, err := NewMinioService(cfg)
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestNewMinioServiceInvalidEndpoint(t *testing.T) {
	cfg := &config.MinioConfig{
		Endpoint: "http://not a host",
		Bucket:   "contracts",
	}

	_, err := NewMinioService(cfg)
	require.Error(t, err)
}

func TestMinioServiceCancelledContext(t *testing.T) {
	svc, err := NewMinioService(&config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "contracts",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = svc.Upload(ctx, "org-a/doc.txt", strings.NewReader("body"), 4, "text/plain")
	require.Error(t, err)
}
