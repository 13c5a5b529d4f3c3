package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Blob is an uploaded file.
type Blob struct {
	Name string
	Data []byte
}

// Digest returns the hex SHA-256 of the blob content.
func (b Blob) Digest() string {
	sum := sha256.Sum256(b.Data)
	return hex.EncodeToString(sum[:])
}

// Uploader stores a blob and returns the public URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, blob Blob) (string, error)
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(ctx context.Context, blob Blob) (string, error)

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, blob Blob) (string, error) {
	return f(ctx, blob)
}

// DefaultMaxBytes is the upload limit used when none is configured.
const DefaultMaxBytes = 10 << 20

// DirUploader writes images to a local directory under a content-addressed
// name and serves them below BaseURL.
type DirUploader struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
	Logger   *zap.Logger
}

// NewDirUploader creates an uploader rooted at dir.
func NewDirUploader(dir, baseURL string, maxBytes int64, logger *zap.Logger) *DirUploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirUploader{Dir: dir, BaseURL: baseURL, MaxBytes: maxBytes, Logger: logger}
}

// Upload validates and stores blob. Only image content is accepted.
func (u *DirUploader) Upload(ctx context.Context, blob Blob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(blob.Data) == 0 {
		return "", ErrEmpty
	}
	if u.MaxBytes > 0 && int64(len(blob.Data)) > u.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(blob.Data), u.MaxBytes)
	}
	mt := mimetype.Detect(blob.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	name := blob.Digest() + mt.Extension()
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(u.Dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, blob.Data, 0o644); err != nil {
			return "", fmt.Errorf("write upload: %w", err)
		}
		if err := os.Rename(tmp, path); err != nil {
			_ = os.Remove(tmp)
			return "", fmt.Errorf("store upload: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	public, err := url.JoinPath(u.BaseURL, name)
	if err != nil {
		return "", fmt.Errorf("build upload URL: %w", err)
	}
	u.Logger.Debug("stored upload",
		zap.String("name", blob.Name),
		zap.String("file", name),
		zap.String("type", mt.String()),
		zap.Int("bytes", len(blob.Data)))
	return public, nil
}

// CachingUploader remembers the URL of every blob it has uploaded so a
// repeated upload of the same content does not reach the backend again.
type CachingUploader struct {
	next  Uploader
	cache *cache.Cache
}

// NewCachingUploader wraps next with a content cache.
func NewCachingUploader(next Uploader, ttl time.Duration) *CachingUploader {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachingUploader{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Upload returns the cached URL for blob or delegates to the wrapped uploader.
func (c *CachingUploader) Upload(ctx context.Context, blob Blob) (string, error) {
	key := blob.Digest()
	if x, found := c.cache.Get(key); found {
		return x.(string), nil
	}
	u, err := c.next.Upload(ctx, blob)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, u, cache.DefaultExpiration)
	return u, nil
}

// Cached returns the number of remembered uploads.
func (c *CachingUploader) Cached() int {
	return c.cache.ItemCount()
}
