package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/foodgram/backend/config"
)

// ImageStorage persists a decoded image artifact and returns its public URL.
// Remove discards an artifact that ended up unreferenced.
type ImageStorage interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, name string) error
}

// S3ImageStorage uploads recipe images to an S3 bucket with public read
// access.
type S3ImageStorage struct {
	s3Config *config.S3Config
}

func NewS3ImageStorage(s3Config *config.S3Config) *S3ImageStorage {
	return &S3ImageStorage{s3Config: s3Config}
}

func (s *S3ImageStorage) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, name), nil
}

func (s *S3ImageStorage) Remove(ctx context.Context, name string) error {
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(name),
	})
	return err
}

// LocalImageStorage writes images under a media directory. Used in
// development and tests where no S3 bucket is configured.
type LocalImageStorage struct {
	dir string
}

func NewLocalImageStorage(dir string) *LocalImageStorage {
	return &LocalImageStorage{dir: dir}
}

func (s *LocalImageStorage) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	fullPath := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", err
	}
	return "/media/" + name, nil
}

func (s *LocalImageStorage) Remove(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(name)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ImageService decodes base64 recipe images and hands them to storage.
type ImageService struct {
	storage ImageStorage
}

func NewImageService(storage ImageStorage) *ImageService {
	return &ImageService{storage: storage}
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// decodePayload decodes a base64 image payload, optionally carrying a
// data-URI prefix, and derives the content-hash artifact name. Identical
// payloads always map to the same name.
func decodePayload(encoded string) (name string, data []byte, contentType string, err error) {
	payload := encoded
	contentType = "image/jpeg"

	if strings.HasPrefix(encoded, "data:") {
		parts := strings.SplitN(encoded, ",", 2)
		if len(parts) != 2 {
			return "", nil, "", &ValidationError{Field: "image", Message: "invalid image payload"}
		}
		meta := strings.TrimPrefix(parts[0], "data:")
		if i := strings.Index(meta, ";"); i >= 0 {
			meta = meta[:i]
		}
		if meta != "" {
			contentType = meta
		}
		payload = parts[1]
	}

	data, decodeErr := base64.StdEncoding.DecodeString(payload)
	if decodeErr != nil || len(data) == 0 {
		return "", nil, "", &ValidationError{Field: "image", Message: "invalid image payload"}
	}

	ext, ok := imageExtensions[contentType]
	if !ok {
		ext = "jpg"
	}
	name = path.Join("recipes", fmt.Sprintf("%x.%s", sha256.Sum256(data), ext))
	return name, data, contentType, nil
}

// DecodeAndStore decodes a base64 image payload and stores the artifact.
func (s *ImageService) DecodeAndStore(ctx context.Context, encoded string) (string, error) {
	name, data, contentType, err := decodePayload(encoded)
	if err != nil {
		return "", err
	}
	return s.storage.Save(ctx, name, data, contentType)
}

// Discard removes the artifact a payload maps to. Callers use it to clean up
// when the write the image belonged to rolls back. Undecodable payloads are a
// no-op since nothing was stored for them.
func (s *ImageService) Discard(ctx context.Context, encoded string) error {
	name, _, _, err := decodePayload(encoded)
	if err != nil {
		return nil
	}
	return s.storage.Remove(ctx, name)
}
