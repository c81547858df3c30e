// Package media stores product images in a gocloud bucket and returns their
// public URLs.
package media

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

const (
	MaxFileSize  int64 = 5 << 20
	MaxFiles           = 10
	keyPrefix          = "products/"
	fallbackName       = "image"
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var (
	ErrUnsupportedType = apperror.New(apperror.KindValidation, "only jpeg, png, webp and gif images are allowed")
	ErrFileTooLarge    = apperror.New(apperror.KindValidation, "image exceeds the 5MB limit")
	ErrNoFile          = apperror.New(apperror.KindValidation, "no image uploaded")
	ErrObjectNotFound  = apperror.New(apperror.KindNotFound, "image not found")
)

type Uploader struct {
	bucket    *blob.Bucket
	publicURL string
	newID     func() string
}

// Open opens the bucket named by bucketURL, e.g. file:///var/media or mem://.
func Open(ctx context.Context, bucketURL, publicURL string) (*Uploader, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return NewUploader(bucket, publicURL), nil
}

func NewUploader(bucket *blob.Bucket, publicURL string) *Uploader {
	return &Uploader{
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		newID:     func() string { return uuid.NewString() },
	}
}

func (u *Uploader) Close() error {
	return u.bucket.Close()
}

// Upload validates and stores one image and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("component", "media"),
		zap.String("filename", filename),
	)

	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrNoFile
	}
	if int64(len(data)) > MaxFileSize {
		return "", ErrFileTooLarge
	}

	ct := normalizeType(contentType)
	if ct == "" || ct == "application/octet-stream" {
		ct = normalizeType(http.DetectContentType(data))
	}
	ext, ok := allowedTypes[ct]
	if !ok {
		log.Info("rejected upload", zap.String("content_type", ct))
		return "", ErrUnsupportedType
	}

	key := u.objectKey(filename, ext)
	if err := u.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: ct}); err != nil {
		log.Error("bucket write failed", zap.String("key", key), zap.Error(err))
		return "", apperror.Wrap(apperror.KindUpstream, "image upload failed", err)
	}

	log.Info("image stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return u.publicURL + "/" + key, nil
}

// objectKey builds products/<uuid>-<slug><ext>. A recognised extension on
// the original filename wins over the one implied by the content type.
func (u *Uploader) objectKey(filename, ext string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if e := strings.ToLower(path.Ext(base)); e != "" {
		base = strings.TrimSuffix(base, path.Ext(base))
		if isImageExt(e) {
			ext = e
		}
	}

	name := utils.Slugify(base)
	if name == "" {
		name = fallbackName
	}
	return keyPrefix + u.newID() + "-" + name + ext
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return true
	}
	return false
}

func normalizeType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// Object is a stored image opened for reading.
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// Get opens a stored object for serving. A missing key is reported as not found.
func (u *Uploader) Get(ctx context.Context, key string) (*Object, error) {
	if !strings.HasPrefix(key, keyPrefix) {
		return nil, ErrObjectNotFound
	}
	r, err := u.bucket.NewReader(ctx, key, nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "image read failed", err)
	}
	return &Object{ReadCloser: r, ContentType: r.ContentType(), Size: r.Size()}, nil
}
