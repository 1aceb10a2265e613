package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"disasterdocs/internal/media"
	"disasterdocs/internal/utils"
	"disasterdocs/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used for asset storage.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// AssetStore keeps uploaded binaries in an S3 bucket under the keys
// media.Reference.Key produces.
type AssetStore struct {
	client S3API
	bucket string
}

func NewAssetStore(client S3API, bucket string) *AssetStore {
	return &AssetStore{client: client, bucket: bucket}
}

// Upload is one file received from the upload form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// Store mints a reference for the upload, writes it to the bucket and
// returns the descriptor to persist alongside the submission.
func (s *AssetStore) Store(ctx context.Context, u Upload) (types.AssetDescriptor, error) {
	if s.bucket == "" {
		return types.AssetDescriptor{}, fmt.Errorf("asset bucket is not configured")
	}

	ref, contentType, err := MintReference(u.Body, u.Filename, u.ContentType)
	if err != nil {
		return types.AssetDescriptor{}, err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(ref.Key()),
		Body:          u.Body,
		ContentLength: aws.Int64(u.Size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return types.AssetDescriptor{}, fmt.Errorf("failed to put object %s: %w", ref.Key(), err)
	}

	descriptor := types.AssetDescriptor{
		Reference: ref.String(),
		MimeType:  utils.StringPtr(contentType),
		SizeBytes: utils.Int64Ptr(u.Size),
	}
	if name := strings.TrimSpace(filepath.Base(u.Filename)); name != "" && name != "." {
		descriptor.OriginalFilename = utils.StringPtr(name)
	}

	return descriptor, nil
}

// Delete removes the object behind a stored reference.
func (s *AssetStore) Delete(ctx context.Context, reference string) error {
	ref, ok := media.ParseReference(reference)
	if !ok {
		return fmt.Errorf("invalid asset reference %q", reference)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref.Key()),
	})
	return utils.ErrorWrapOrNil(err, "failed to delete object "+ref.Key())
}

// MintReference hashes body and derives the "<kind>-<hash>-<ext>" reference
// for it. body is rewound before returning. The returned content type is
// the declared one, or a sniffed one when nothing useful was declared.
func MintReference(body io.ReadSeeker, filename, contentType string) (media.Reference, string, error) {
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	if contentType == "" || contentType == "application/octet-stream" {
		sniffed, err := sniffContentType(body)
		if err != nil {
			return media.Reference{}, "", err
		}
		contentType = sniffed
	}

	h := sha1.New()
	if _, err := io.Copy(h, body); err != nil {
		return media.Reference{}, "", fmt.Errorf("failed to hash upload: %w", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return media.Reference{}, "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	kind := media.KindTagFile
	if strings.HasPrefix(contentType, "image/") {
		kind = media.KindTagImage
	}

	ref, err := media.NewReference(kind, hex.EncodeToString(h.Sum(nil)), extensionFor(filename, contentType))
	if err != nil {
		return media.Reference{}, "", err
	}

	return ref, contentType, nil
}

func sniffContentType(body io.ReadSeeker) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	ct := http.DetectContentType(head[:n])
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return ct, nil
}

// knownExtensions pins the extension for common upload types; the system
// mime table can list several and their order varies by platform.
var knownExtensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
	"application/pdf": "pdf",
	"text/plain":      "txt",
}

func extensionFor(filename, contentType string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if media.ValidExtension(ext) {
		return ext
	}

	if ext, ok := knownExtensions[contentType]; ok {
		return ext
	}

	exts, _ := mime.ExtensionsByType(contentType)
	for _, e := range exts {
		e = strings.TrimPrefix(e, ".")
		if media.ValidExtension(e) {
			return e
		}
	}

	return "bin"
}
