// Package storage_manager provides read access to the catalog and prompt
// overrides, kept either in a local directory or an S3 bucket.
package storage_manager //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a file does not exist in the backend.
var ErrNotFound = errors.New("file not found")

//go:generate mockery --name FileProvider --output ./mocks --with-expecter

// FileProvider defines the read operations on a storage backend.
type FileProvider interface {
	// Read reads the entire content of a file
	Read(ctx context.Context, path string) ([]byte, error)

	// Exists checks if a file exists
	Exists(ctx context.Context, path string) (bool, error)

	// List returns a list of files matching a prefix
	List(ctx context.Context, prefix string) ([]string, error)
}

// LocalFileProvider implements FileProvider for local filesystem.
type LocalFileProvider struct {
	baseDir string
}

// NewLocalFileProvider creates a new local file provider.
func NewLocalFileProvider(baseDir string) *LocalFileProvider {
	return &LocalFileProvider{
		baseDir: baseDir,
	}
}

// resolve joins name onto the base directory, refusing paths that escape it.
func (p *LocalFileProvider) resolve(name string) (string, error) {
	full := filepath.Join(p.baseDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(p.baseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", name)
	}
	return full, nil
}

// Read reads a file from the local filesystem.
func (p *LocalFileProvider) Read(_ context.Context, name string) ([]byte, error) {
	full, err := p.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full) //nolint:gosec // G304: path is confined to baseDir
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, err
}

// Exists checks if a file exists on the local filesystem.
func (p *LocalFileProvider) Exists(_ context.Context, name string) (bool, error) {
	full, err := p.resolve(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// List returns files under prefix, as slash-separated paths relative to the base directory.
func (p *LocalFileProvider) List(_ context.Context, prefix string) ([]string, error) {
	searchPath, err := p.resolve(prefix)
	if err != nil {
		return nil, err
	}

	result := []string{}
	err = filepath.WalkDir(searchPath, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			rel, err := filepath.Rel(p.baseDir, name)
			if err == nil {
				result = append(result, filepath.ToSlash(rel))
			}
		}
		return nil
	})
	return result, err
}

// S3FileProvider implements FileProvider for AWS S3.
type S3FileProvider struct {
	bucket   string
	prefix   string
	s3Client S3Client
}

// NewS3FileProvider creates a new S3 file provider.
func NewS3FileProvider(bucket, prefix string, s3Client S3Client) *S3FileProvider {
	return &S3FileProvider{
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		s3Client: s3Client,
	}
}

// Read reads a file from S3.
func (p *S3FileProvider) Read(ctx context.Context, name string) ([]byte, error) {
	return p.s3Client.GetObject(ctx, p.bucket, p.getKey(name))
}

// Exists checks if a file exists in S3.
// Returns (false, nil) only for "not found" errors.
func (p *S3FileProvider) Exists(ctx context.Context, name string) (bool, error) {
	err := p.s3Client.HeadObject(ctx, p.bucket, p.getKey(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns files matching a prefix in S3.
func (p *S3FileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.s3Client.ListObjects(ctx, p.bucket, p.getKey(prefix))
	if err != nil {
		return nil, err
	}

	root := p.getKey("")
	result := []string{}
	for _, key := range keys {
		if rel := strings.TrimPrefix(key, root); rel != "" {
			result = append(result, rel)
		}
	}
	return result, nil
}

// getKey constructs the full S3 key by combining prefix and path.
func (p *S3FileProvider) getKey(name string) string {
	if p.prefix == "" {
		return name
	}
	if name == "" {
		return p.prefix + "/"
	}
	return path.Join(p.prefix, name)
}

// PrefixedFileProvider scopes a FileProvider to a sub-directory.
type PrefixedFileProvider struct {
	provider FileProvider
	prefix   string
}

// NewPrefixedFileProvider creates a new prefixed file provider.
func NewPrefixedFileProvider(provider FileProvider, prefix string) *PrefixedFileProvider {
	return &PrefixedFileProvider{
		provider: provider,
		prefix:   strings.Trim(prefix, "/"),
	}
}

// Read reads a file with the prefix applied.
func (p *PrefixedFileProvider) Read(ctx context.Context, name string) ([]byte, error) {
	return p.provider.Read(ctx, p.prefixPath(name))
}

// Exists checks if a file exists with the prefix applied.
func (p *PrefixedFileProvider) Exists(ctx context.Context, name string) (bool, error) {
	return p.provider.Exists(ctx, p.prefixPath(name))
}

// List returns files matching a prefix, relative to the provider prefix.
func (p *PrefixedFileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	files, err := p.provider.List(ctx, p.prefixPath(prefix))
	if err != nil {
		return nil, err
	}

	root := p.prefix + "/"
	result := []string{}
	for _, file := range files {
		if rel := strings.TrimPrefix(file, root); rel != file || p.prefix == "" {
			result = append(result, rel)
		}
	}
	return result, nil
}

func (p *PrefixedFileProvider) prefixPath(name string) string {
	if p.prefix == "" {
		return name
	}
	if name == "" {
		return p.prefix
	}
	return p.prefix + "/" + name
}
