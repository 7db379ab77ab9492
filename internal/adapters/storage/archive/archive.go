// Package archive stores exported quote snapshots outside the service,
// either in a local directory or in an S3 bucket.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// Archive drivers, as named in configuration.
const (
	DriverNone = "none"
	DriverFile = "file"
	DriverS3   = "s3"
)

// Dir writes snapshots into a local directory.
type Dir struct {
	root string
}

var _ ports.SnapshotArchive = (*Dir)(nil)

// NewDir creates the directory if needed and returns an archive rooted there.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("archive directory is required")
	}

	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	return &Dir{root: root}, nil
}

// Put implements ports.SnapshotArchive. The file is written under a
// temporary name and renamed so readers never see a partial snapshot.
func (d *Dir) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(d.root, filepath.Base(name))

	tmp, err := os.CreateTemp(d.root, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("creating snapshot file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("writing snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("publishing snapshot: %w", err)
	}

	return dst, nil
}

// Open returns the archive selected by cfg, or nil when archiving is off.
func Open(ctx context.Context, cfg *config.ArchiveConfig) (ports.SnapshotArchive, error) {
	switch cfg.Driver {
	case DriverFile:
		dir, err := NewDir(cfg.Dir)
		if err != nil {
			return nil, err
		}

		return dir, nil
	case DriverS3:
		bucket, err := NewS3(ctx, S3Config{
			Bucket:   cfg.Bucket,
			Prefix:   cfg.Prefix,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
		if err != nil {
			return nil, err
		}

		return bucket, nil
	case DriverNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported archive driver %q", cfg.Driver)
	}
}
