// Package storage abstracts where exported tree snapshots are written.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ErrNotExist is returned by Get when the key is absent.
var ErrNotExist = errors.New("blob does not exist")

// BlobStore defines the interface for abstract storage backends.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Location is a parsed export destination.
type Location struct {
	// Bucket is empty for local destinations.
	Bucket string
	// Path is the local root directory or the S3 key prefix.
	Path string
}

// IsS3 reports whether the location points at a bucket.
func (l Location) IsS3() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Path
	}
	return l.Path
}

// ParseLocation accepts "s3://bucket/prefix" or a local directory path.
func ParseLocation(dest string) (Location, error) {
	if !strings.HasPrefix(dest, "s3://") {
		if dest == "" {
			dest = "."
		}
		return Location{Path: dest}, nil
	}
	u, err := url.Parse(dest)
	if err != nil {
		return Location{}, fmt.Errorf("invalid s3 url: %w", err)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("invalid s3 url %q: missing bucket", dest)
	}
	return Location{Bucket: u.Host, Path: strings.Trim(u.Path, "/")}, nil
}

// Open returns the BlobStore for loc. cfg is only used for S3 locations.
func Open(loc Location, cfg aws.Config) BlobStore {
	if loc.IsS3() {
		return NewS3Store(cfg, loc.Bucket, loc.Path)
	}
	return NewLocalStore(loc.Path)
}
