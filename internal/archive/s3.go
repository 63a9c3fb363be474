// Package archive stores snapshot documents in an S3-compatible bucket for
// off-site backup.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/haysimo/siteops/internal/config"
)

const objectPrefix = "snapshots/"

// ObjectInfo describes one archived snapshot.
type ObjectInfo struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Client wraps a minio client bound to one bucket.
type Client struct {
	mc     *minio.Client
	bucket string
}

// NewClient connects to the configured endpoint and makes sure the bucket
// exists.
func NewClient(ctx context.Context, cfg config.ArchiveConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("archive credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket must be provided")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("could not build archive client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("could not check archive bucket: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("could not create archive bucket: %w", err)
		}
	}

	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// Upload stores one snapshot document under the given name.
func (c *Client) Upload(ctx context.Context, name string, data []byte) error {
	_, err := c.mc.PutObject(ctx, c.bucket, objectPrefix+name,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("could not upload snapshot %s: %w", name, err)
	}
	return nil
}

// List returns every archived snapshot, newest name first.
func (c *Client) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for object := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: objectPrefix}) {
		if object.Err != nil {
			return nil, fmt.Errorf("could not list archive: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:  strings.TrimPrefix(object.Key, objectPrefix),
			Size: object.Size,
		})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
	return objects, nil
}

// Download fetches one archived snapshot by name.
func (c *Client) Download(ctx context.Context, name string) ([]byte, error) {
	object, err := c.mc.GetObject(ctx, c.bucket, objectPrefix+name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("could not fetch snapshot %s: %w", name, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("could not read snapshot %s: %w", name, err)
	}
	return data, nil
}
