package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"fulfillment-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Bucket R2/S3兼容的存储桶
type Bucket struct {
	client *minio.Client
	name   string
}

// NewBucket 创建存储桶客户端，不会发起网络请求
func NewBucket(cfg config.StorageConfig) (*Bucket, error) {
	host, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("创建对象存储客户端失败: %w", err)
	}

	return &Bucket{client: client, name: cfg.BucketName}, nil
}

// Name 存储桶名称
func (b *Bucket) Name() string { return b.name }

// Purge 删除存储桶中的所有对象，返回删除数量
func (b *Bucket) Purge(ctx context.Context) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// listed与listErr只由列举协程写入，objects关闭后才读取
	var (
		listed  int
		listErr error
	)
	objects := make(chan minio.ObjectInfo)
	go func() {
		defer close(objects)
		for obj := range b.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{Recursive: true}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case objects <- obj:
				listed++
			case <-ctx.Done():
				return
			}
		}
	}()

	failed := 0
	var removeErr error
	for result := range b.client.RemoveObjects(ctx, b.name, objects, minio.RemoveObjectsOptions{}) {
		if result.Err == nil {
			continue
		}
		failed++
		if removeErr == nil {
			removeErr = fmt.Errorf("删除对象%s失败: %w", result.ObjectName, result.Err)
		}
	}

	if listErr != nil {
		return listed - failed, fmt.Errorf("列出对象失败: %w", listErr)
	}
	return listed - failed, removeErr
}

// parseEndpoint 拆出主机名与是否使用TLS，无协议前缀时默认https
func parseEndpoint(endpoint string) (host string, secure bool, err error) {
	if endpoint == "" {
		return "", false, fmt.Errorf("对象存储endpoint为空")
	}
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), true, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("解析endpoint失败: %w", err)
	}
	switch u.Scheme {
	case "https":
		secure = true
	case "http":
	default:
		return "", false, fmt.Errorf("不支持的endpoint协议: %s", u.Scheme)
	}
	return u.Host, secure, nil
}
