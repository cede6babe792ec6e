package minio

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/jmgilman/go/directio/fs/core"
	"github.com/jmgilman/go/directio/fs/fstest"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testBucket = "directio-test"

// setupMinIOContainer starts a MinIO container and returns a client bound to it.
func setupMinIOContainer(t *testing.T) *minio.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
	}

	minioC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start MinIO container")
	t.Cleanup(func() { _ = minioC.Terminate(ctx) })

	endpoint, err := minioC.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)
	require.NoError(t, client.MakeBucket(ctx, testBucket, minio.MakeBucketOptions{}))
	return client
}

// newTestFS returns a filesystem rooted at a fresh prefix so that tests
// sharing a bucket never see each other's objects.
func newTestFS(t *testing.T, client *minio.Client, threshold int64) *FS {
	t.Helper()
	fsys, err := New(Config{
		Client:             client,
		Bucket:             testBucket,
		Prefix:             uuid.NewString(),
		MultipartThreshold: threshold,
	})
	require.NoError(t, err)
	return fsys
}

func TestMinioConformance(t *testing.T) {
	client := setupMinIOContainer(t)

	fstest.Run(t, func() core.FS {
		return newTestFS(t, client, 0)
	}, fstest.ObjectStoreConfig())
}

func TestMinioStreamingUpload(t *testing.T) {
	client := setupMinIOContainer(t)
	fsys := newTestFS(t, client, 1024)

	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, fsys.WriteFile("big.bin", data, 0o644))

	got, err := fsys.ReadFile("big.bin")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	f, err := fsys.Open("big.bin")
	require.NoError(t, err)
	defer f.Close()
	_, err = f.(io.Seeker).Seek(1000, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(f, buf)
	require.NoError(t, err)
	assert.Equal(t, data[1000:1004], buf)
}

func TestMinioRenameDirectory(t *testing.T) {
	client := setupMinIOContainer(t)
	fsys := newTestFS(t, client, 0)

	for _, name := range []string{"attempt/a.txt", "attempt/sub/b.txt", "attempt/sub/c.txt"} {
		require.NoError(t, fsys.WriteFile(name, []byte(name), 0o644))
	}
	require.NoError(t, fsys.Rename("attempt", "staging"))

	files, err := core.ListFiles(fsys, "staging")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "sub/b.txt", "sub/c.txt"}, files)

	ok, err := fsys.Exists("attempt")
	require.NoError(t, err)
	assert.False(t, ok)
}
