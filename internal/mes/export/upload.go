package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/bitfantasy/nimo-mes/internal/config"
)

// ErrStorageNotConfigured 未配置 MinIO
var ErrStorageNotConfigured = errors.New("storage not configured")

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

// Uploader 将导出文件归档到对象存储
type Uploader struct {
	client *minio.Client
	bucket string
	prefix string
	now    func() time.Time
	log    *zap.Logger
}

// NewUploader 按配置创建 MinIO 归档客户端
func NewUploader(cfg config.MinIOConfig, log *zap.Logger) (*Uploader, error) {
	if cfg.Endpoint == "" {
		return nil, ErrStorageNotConfigured
	}
	if log == nil {
		log = zap.NewNop()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Uploader{client: client, bucket: cfg.Bucket, prefix: "exports", now: time.Now, log: log}, nil
}

// ObjectName 归档对象名：exports/<yyyymmdd>/<filename>
func (u *Uploader) ObjectName(filename string) string {
	return path.Join(u.prefix, u.now().Format("20060102"), filename)
}

// Upload 上传文件，bucket 不存在时创建，返回对象名
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket: %w", err)
		}
	}

	objectName := u.ObjectName(filename)
	info, err := u.client.PutObject(ctx, u.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	u.log.Info("导出文件已归档",
		zap.String("bucket", u.bucket),
		zap.String("object", objectName),
		zap.Int64("size", info.Size),
	)
	return objectName, nil
}
