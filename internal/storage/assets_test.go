package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"disasterdocs/internal/media"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	putErr    error
	deleteErr error
	puts      []*s3.PutObjectInput
	deletes   []*s3.DeleteObjectInput
	body      []byte
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.puts = append(m.puts, params)
	if m.putErr != nil {
		return nil, m.putErr
	}
	b, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.body = b
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.deletes = append(m.deletes, params)
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	return &s3.DeleteObjectOutput{}, nil
}

// sha1("hello world")
const helloSHA1 = "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"

func TestMintReference(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		content     string
		expected    string
		expectedCT  string
	}{
		{
			name:        "image keeps extension",
			filename:    "Flooded Street.JPG",
			contentType: "image/jpeg",
			content:     "hello world",
			expected:    "image-" + helloSHA1 + "-jpg",
			expectedCT:  "image/jpeg",
		},
		{
			name:        "document",
			filename:    "report.pdf",
			contentType: "application/pdf",
			content:     "hello world",
			expected:    "file-" + helloSHA1 + "-pdf",
			expectedCT:  "application/pdf",
		},
		{
			name:        "unsafe extension falls back to content type",
			filename:    "clip.m p4",
			contentType: "video/mp4",
			content:     "hello world",
			expected:    "file-" + helloSHA1 + "-mp4",
			expectedCT:  "video/mp4",
		},
		{
			name:        "sniffed when undeclared",
			filename:    "notes",
			contentType: "",
			content:     "hello world",
			expected:    "file-" + helloSHA1 + "-txt",
			expectedCT:  "text/plain",
		},
		{
			name:        "unknown everything",
			filename:    "blob",
			contentType: "application/x-unknown-thing",
			content:     "hello world",
			expected:    "file-" + helloSHA1 + "-bin",
			expectedCT:  "application/x-unknown-thing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.NewReader(tt.content)

			ref, ct, err := MintReference(body, tt.filename, tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref.String())
			assert.Equal(t, tt.expectedCT, ct)

			_, ok := media.ParseReference(ref.String())
			assert.True(t, ok)

			rest, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(rest), "body must be rewound")
		})
	}
}

func TestAssetStore_Store(t *testing.T) {
	client := &mockS3{}
	store := NewAssetStore(client, "evidence")

	descriptor, err := store.Store(context.Background(), Upload{
		Filename:    "dir/photo.png",
		ContentType: "image/png",
		Size:        11,
		Body:        strings.NewReader("hello world"),
	})
	require.NoError(t, err)

	assert.Equal(t, "image-"+helloSHA1+"-png", descriptor.Reference)
	require.NotNil(t, descriptor.OriginalFilename)
	assert.Equal(t, "photo.png", *descriptor.OriginalFilename)
	require.NotNil(t, descriptor.SizeBytes)
	assert.Equal(t, int64(11), *descriptor.SizeBytes)
	assert.Nil(t, descriptor.URL)

	require.Len(t, client.puts, 1)
	assert.Equal(t, "evidence", aws.ToString(client.puts[0].Bucket))
	assert.Equal(t, "images/"+helloSHA1+".png", aws.ToString(client.puts[0].Key))
	assert.Equal(t, "image/png", aws.ToString(client.puts[0].ContentType))
	assert.Equal(t, "hello world", string(client.body))
}

func TestAssetStore_StoreErrors(t *testing.T) {
	_, err := NewAssetStore(&mockS3{}, "").Store(context.Background(), Upload{Body: strings.NewReader("x")})
	assert.Error(t, err)

	client := &mockS3{putErr: errors.New("boom")}
	_, err = NewAssetStore(client, "evidence").Store(context.Background(), Upload{
		Filename: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader("x"),
	})
	assert.ErrorContains(t, err, "boom")
}

func TestAssetStore_Delete(t *testing.T) {
	client := &mockS3{}
	store := NewAssetStore(client, "evidence")

	require.NoError(t, store.Delete(context.Background(), "file-abc123-pdf"))
	require.Len(t, client.deletes, 1)
	assert.Equal(t, "files/abc123.pdf", aws.ToString(client.deletes[0].Key))

	assert.Error(t, store.Delete(context.Background(), "bogus"))
	assert.Len(t, client.deletes, 1)
}
