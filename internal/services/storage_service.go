// internal/services/storage_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sapphirus/sapphirus-backend/internal/config"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidFileType = errors.New("file type not allowed")
)

// StorageService uploads assets to S3 and falls back to local disk when no
// AWS credentials are configured, which keeps development setups simple.
type StorageService struct {
	config   *config.Config
	uploader *s3manager.Uploader
	localDir string
}

type UploadOptions struct {
	Folder    string
	MaxSize   int64
	FileTypes []string
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	svc := &StorageService{
		config:   cfg,
		localDir: "./uploads",
	}

	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWS.Region),
			Credentials: credentials.NewStaticCredentials(
				cfg.AWS.AccessKeyID,
				cfg.AWS.SecretAccessKey,
				"",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		svc.uploader = s3manager.NewUploader(sess)
	} else {
		if err := os.MkdirAll(svc.localDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		logrus.Warn("AWS credentials not configured, storing uploads locally")
	}

	return svc, nil
}

func (s *StorageService) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, opts UploadOptions) (*UploadResult, error) {
	if opts.MaxSize > 0 && fileHeader.Size > opts.MaxSize {
		return nil, ErrFileTooLarge
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if len(opts.FileTypes) > 0 {
		allowed := false
		for _, ft := range opts.FileTypes {
			if ft == mimeType {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, ErrInvalidFileType
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := fmt.Sprintf("%s/%s%s", opts.Folder, uuid.New().String(), ext)

	var url string
	if s.uploader != nil {
		url, err = s.uploadToS3(ctx, key, mimeType, file)
	} else {
		url, err = s.uploadToLocal(key, file)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"key":  key,
		"size": fileHeader.Size,
	}).Info("File uploaded")

	return &UploadResult{
		URL:      url,
		Key:      key,
		Size:     fileHeader.Size,
		MimeType: mimeType,
	}, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, key, mimeType string, body io.Reader) (string, error) {
	result, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.config.AWS.S3Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.AWS.CloudFrontURL, "/"), key), nil
	}
	return result.Location, nil
}

func (s *StorageService) uploadToLocal(key string, body io.Reader) (string, error) {
	path := filepath.Join(s.localDir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return "/uploads/" + key, nil
}
