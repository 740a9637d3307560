package main

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/damacus/iron-index/internal/config"
	"github.com/damacus/iron-index/internal/metrics"
	"github.com/damacus/iron-index/internal/services"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioImage    = "minio/minio:RELEASE.2024-05-28T17-19-04Z"
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
	testBucket    = "test-bucket"
)

// startMinio runs a throwaway MinIO server seeded with objects and returns
// its endpoint URL.
func startMinio(t *testing.T, objects map[string]string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        minioImage,
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	endpoint, err := ctr.PortEndpoint(ctx, "9000/tcp", "http")
	require.NoError(t, err)

	client, err := minio.New(strings.TrimPrefix(endpoint, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4(minioUser, minioPassword, ""),
		Secure: false,
	})
	require.NoError(t, err)

	require.NoError(t, client.MakeBucket(ctx, testBucket, minio.MakeBucketOptions{}))
	for key, body := range objects {
		_, err := client.PutObject(ctx, testBucket, key, strings.NewReader(body), int64(len(body)),
			minio.PutObjectOptions{ContentType: "text/plain"})
		require.NoError(t, err)
	}

	return endpoint
}

func TestIntegration_BrowseMinio(t *testing.T) {
	endpoint := startMinio(t, map[string]string{
		"file.txt":        "I am a file",
		"folder/file.txt": folderFileBody,
	})

	store, err := services.NewMinioStore(config.BucketConfig{
		Name:            testBucket,
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     minioUser,
		SecretAccessKey: minioPassword,
		PathStyle:       true,
		ListPageSize:    1000,
	})
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))

	m := metrics.New()
	e := newServer(services.NewResolver(store, services.WithObserver(m)), zerolog.Nop(), m)

	t.Run("root", func(t *testing.T) {
		rec := get(e, "/")
		require.Equal(t, http.StatusOK, rec.Code)

		body := tbody(t, rec.Body.String())
		assert.NotContains(t, body, `href="../"`)
		assert.Less(t, strings.Index(body, `<a href="folder/">`), strings.Index(body, `<a href="file.txt">`))
	})

	t.Run("file", func(t *testing.T) {
		rec := get(e, "/file.txt")
		require.Equal(t, http.StatusOK, rec.Code)

		data, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, "I am a file", string(data))
		assert.Equal(t, "11", rec.Header().Get("Content-Length"))
	})

	for _, target := range []string{"/folder", "/folder/"} {
		t.Run("folder "+target, func(t *testing.T) {
			rec := get(e, target)
			require.Equal(t, http.StatusOK, rec.Code)

			body := tbody(t, rec.Body.String())
			assert.Equal(t, 2, strings.Count(body, "<tr>"))
			assert.Contains(t, body, `<a href="../">..</a>`)
			assert.Contains(t, body, `<a href="file.txt">file.txt</a>`)
			assert.Contains(t, body, "23.000 B")
		})
	}

	t.Run("nested file", func(t *testing.T) {
		rec := get(e, "/folder/file.txt")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, folderFileBody, rec.Body.String())
	})

	t.Run("missing prefix lists empty", func(t *testing.T) {
		// S3 lists an unknown prefix as empty rather than failing.
		rec := get(e, "/nothing-here")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, strings.Count(tbody(t, rec.Body.String()), "<tr>"))
	})
}

func TestIntegration_MissingBucketIsNotFound(t *testing.T) {
	endpoint := startMinio(t, nil)

	store, err := services.NewMinioStore(config.BucketConfig{
		Name:            "no-such-bucket",
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     minioUser,
		SecretAccessKey: minioPassword,
		PathStyle:       true,
	})
	require.NoError(t, err)
	assert.Error(t, store.Ping(context.Background()))

	m := metrics.New()
	e := newServer(services.NewResolver(store), zerolog.Nop(), m)

	assert.Equal(t, http.StatusNotFound, get(e, "/").Code)
}
