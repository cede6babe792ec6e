package minio

import (
	"fmt"

	"github.com/minio/minio-go/v7"
)

// Config configures an object store filesystem.
type Config struct {
	// Endpoint is the host:port of the server. Ignored when Client is set.
	Endpoint string

	// Bucket holds every object of the filesystem. Required.
	Bucket string

	AccessKey string
	SecretKey string
	UseSSL    bool

	// Prefix roots the filesystem below a key prefix.
	Prefix string

	// Client is an optional preconfigured client.
	Client *minio.Client

	// MultipartThreshold is the size at which writes switch from a single
	// buffered upload to a streaming upload. Defaults to 5 MiB.
	MultipartThreshold int64

	// RenameConcurrency bounds parallel copies when renaming a directory.
	// Defaults to 10.
	RenameConcurrency int
}

func (c *Config) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when client is not provided")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("access key and secret key are required when client is not provided")
	}
	return nil
}
