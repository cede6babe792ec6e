package datasource

import (
	"context"
	"os"
	"strconv"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/fs/billy"
	"github.com/jmgilman/go/directio/fs/core"
	"github.com/jmgilman/go/directio/fs/minio"
	"github.com/jmgilman/go/directio/internal/logging"
)

// Data source kinds registered by Factories.
const (
	KindLocal  = "local"
	KindMemory = "memory"
	KindMinio  = "minio"
)

// Factory-specific attribute keys.
const (
	KeyLocalTempDir   = "local.tempdir"
	KeyMinioEndpoint  = "minio.endpoint"
	KeyMinioBucket    = "minio.bucket"
	KeyMinioAccessKey = "minio.access-key"
	KeyMinioSecretKey = "minio.secret-key"
	KeyMinioSSL       = "minio.ssl"
	KeyMinioPrefix    = "minio.prefix"
)

// Factories returns the built-in factories keyed by kind.
func Factories(logger *logging.Logger) map[string]directio.Factory {
	return map[string]directio.Factory{
		KindLocal:  LocalFactory(logger),
		KindMemory: MemoryFactory(logger),
		KindMinio:  MinioFactory(logger),
	}
}

// LocalFactory creates data sources on the local disk. fs.path and
// fs.tempdir are host paths. When output streaming is disabled, attempts
// write below local.tempdir, which defaults to the system temporary
// directory.
func LocalFactory(logger *logging.Logger) directio.Factory {
	return func(_ context.Context, d directio.Descriptor) (directio.DataSource, error) {
		profile, err := ParseProfile(d)
		if err != nil {
			return nil, err
		}
		fsys := billy.NewLocal("/")
		opts := []Option{WithLogger(logger)}
		if !profile.OutputStreaming {
			opts = append(opts, WithScratch(fsys, d.Attribute(KeyLocalTempDir, os.TempDir())))
		}
		return New(profile, fsys, opts...), nil
	}
}

// MemoryFactory creates data sources on a private in-memory filesystem.
func MemoryFactory(logger *logging.Logger) directio.Factory {
	return func(_ context.Context, d directio.Descriptor) (directio.DataSource, error) {
		profile, err := ParseProfile(d)
		if err != nil {
			return nil, err
		}
		return newWithScratch(profile, billy.NewMemory(), d, logger), nil
	}
}

// MinioFactory creates data sources on an S3-compatible object store.
func MinioFactory(logger *logging.Logger) directio.Factory {
	return func(ctx context.Context, d directio.Descriptor) (directio.DataSource, error) {
		profile, err := ParseProfile(d)
		if err != nil {
			return nil, err
		}
		useSSL, err := strconv.ParseBool(d.Attribute(KeyMinioSSL, "false"))
		if err != nil {
			return nil, invalid(d, "%s must be boolean", KeyMinioSSL)
		}
		fsys, err := minio.New(minio.Config{
			Endpoint:  d.Attribute(KeyMinioEndpoint, ""),
			Bucket:    d.Attribute(KeyMinioBucket, ""),
			AccessKey: d.Attribute(KeyMinioAccessKey, ""),
			SecretKey: d.Attribute(KeyMinioSecretKey, ""),
			UseSSL:    useSSL,
			Prefix:    d.Attribute(KeyMinioPrefix, ""),
		})
		if err != nil {
			return nil, errors.WithContext(errors.Wrap(err, errors.CodeInvalidConfig, "failed to create object store"), "id", d.ID)
		}
		return newWithScratch(profile, fsys, d, logger), nil
	}
}

// newWithScratch adds local scratch space for non-streaming output.
func newWithScratch(profile Profile, fsys core.FS, d directio.Descriptor, logger *logging.Logger) *DataSource {
	opts := []Option{WithLogger(logger)}
	if !profile.OutputStreaming {
		opts = append(opts, WithScratch(billy.NewLocal("/"), d.Attribute(KeyLocalTempDir, os.TempDir())))
	}
	return New(profile, fsys, opts...)
}
