package storage

import (
	"bytes"
	"context"
	"fmt"
	"insightai_backend/config"
	"insightai_backend/pkg/logging"
	"insightai_backend/utils"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

type Service struct {
	Client           *minio.Client
	Config           *minio.Options
	Bucket           string
	StorageType      string
	FileKeyGenerator *utils.FileKeyGenerator
}

func InitStorageService(cfg *config.Config) (*Service, error) {
	var minioClient *minio.Client
	var err error

	// local minio vs hosted s3
	switch cfg.StorageType {
	case "minio":
		minioClient, err = utils.CreateMinIOClient(cfg)
	case "s3":
		minioClient, err = utils.CreateS3Client(cfg)
	default:
		logging.Logger.Error("fail InitStorageService, unknown storage type", "type", cfg.StorageType)
		return nil, fmt.Errorf("unknown storage type: %q", cfg.StorageType)
	}
	if err != nil {
		logging.Logger.Error("fail InitStorageService", "error", err)
		return nil, err
	}
	keyGenerator := utils.NewFileKeyGenerator(utils.StrategyDateBased, "media")
	ss := &Service{
		Client:           minioClient,
		Config:           &minio.Options{Region: cfg.BucketRegion},
		Bucket:           cfg.BucketName,
		StorageType:      cfg.StorageType,
		FileKeyGenerator: keyGenerator,
	}
	if err := ss.EnsureBucketExists(); err != nil {
		logging.Logger.Error("fail InitStorageService", "error", err)
		return nil, err
	}
	logging.Logger.Info("Storage service initialized",
		"type", cfg.StorageType,
		"bucket", cfg.BucketName,
		"region", cfg.BucketRegion,
	)
	return ss, nil
}

func (ss *Service) EnsureBucketExists() error {
	ctx := context.Background()
	exists, err := ss.Client.BucketExists(ctx, ss.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = ss.Client.MakeBucket(ctx, ss.Bucket, minio.MakeBucketOptions{
		Region: ss.Config.Region,
	})
	if err != nil {
		if ss.StorageType == "s3" {
			logging.Logger.Warn("Could not create S3 bucket (might exist or no permission)",
				"bucket", ss.Bucket, "error", err)
			return nil
		}
		return err
	}
	logging.Logger.Info("Bucket created", "bucket", ss.Bucket)
	return nil
}

func (ss *Service) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := ss.Client.PutObject(ctx, ss.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (ss *Service) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := ss.Client.GetObject(ctx, ss.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := obj.Close(); err != nil {
			logging.Logger.Error("fail closing object reader", "key", key, "error", err)
		}
	}()
	return io.ReadAll(obj)
}

// GetObjectRange reads [offset, offset+length) of an object. length <= 0
// reads to the end.
func (ss *Service) GetObjectRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	opts := minio.GetObjectOptions{}
	end := int64(0)
	if length > 0 {
		end = offset + length - 1
	}
	if err := opts.SetRange(offset, end); err != nil {
		return nil, err
	}
	obj, err := ss.Client.GetObject(ctx, ss.Bucket, key, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := obj.Close(); err != nil {
			logging.Logger.Error("fail closing object reader", "key", key, "error", err)
		}
	}()
	return io.ReadAll(obj)
}

// StatObject returns the object size, or found=false when it does not exist.
func (ss *Service) StatObject(ctx context.Context, key string) (size int64, found bool, err error) {
	info, err := ss.Client.StatObject(ctx, ss.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return 0, false, nil
		}
		return 0, false, err
	}
	return info.Size, true, nil
}

func (ss *Service) RemoveObject(ctx context.Context, key string) error {
	return ss.Client.RemoveObject(ctx, ss.Bucket, key, minio.RemoveObjectOptions{})
}

func (ss *Service) GeneratePresignedGetDownload(key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		return "", fmt.Errorf("expiry must be positive")
	}
	presignedURL, err := ss.Client.PresignedGetObject(
		context.Background(),
		ss.Bucket,
		key,
		expiry,
		nil,
	)
	if err != nil {
		logging.Logger.Error("fail GeneratePresignedGetDownload", "key", key, "error", err)
		return "", err
	}
	return presignedURL.String(), nil
}

// GenerateMediaKey produces the canonical durable key for an assembled file.
func (ss *Service) GenerateMediaKey(filename string) string {
	return ss.FileKeyGenerator.GenerateFileKey(filename, "")
}
