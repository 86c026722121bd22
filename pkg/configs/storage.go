package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Disk 文件存储后端名称，与媒体记录中的 disk 字段一致.
type Disk string

const (
	DiskLocal Disk = "local"
	DiskS3    Disk = "s3"
)

const (
	DefaultStorageRoot       = "./uploads"      // 本地上传目录
	DefaultMaxUploadMB       = 10               // 单个上传文件最大尺寸（MB）
	DefaultPresignExpiry     = 15 * time.Minute // 预签名 URL 有效期
	DefaultS3Endpoint        = "localhost:9000" // 默认S3端点
	DefaultS3AccessKeyID     = "minioadmin"     // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin"     // 默认秘密访问密钥
	DefaultS3UseSSL          = false            // 默认是否使用SSL
	DefaultS3BucketName      = "employeeman"    // 默认存储桶名称
	DefaultS3Region          = "us-east-1"      // 默认区域
)

// StorageConfig 文件存储配置.
type StorageConfig struct {
	Disk          Disk               `mapstructure:"disk"           rule:"oneof=local s3"`
	MaxUploadMB   int64              `mapstructure:"max_upload_mb"  rule:"min=1"`
	PresignExpiry time.Duration      `mapstructure:"presign_expiry"`
	Local         LocalStorageConfig `mapstructure:"local"`
	S3            S3Config           `mapstructure:"s3"`
}

// LocalStorageConfig 本地磁盘存储配置.
type LocalStorageConfig struct {
	Root string `mapstructure:"root" rule:"required"`
}

// S3Config MinIO S3存储配置.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	Region          string `mapstructure:"region"`
}

// MaxUploadBytes 返回上传大小上限（字节）.
func (c *StorageConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults 设置文件存储配置的默认值.
func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.disk", DiskLocal)
	v.SetDefault("storage.max_upload_mb", DefaultMaxUploadMB)
	v.SetDefault("storage.presign_expiry", DefaultPresignExpiry)
	v.SetDefault("storage.local.root", DefaultStorageRoot)
	v.SetDefault("storage.s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("storage.s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("storage.s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("storage.s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("storage.s3.bucket_name", DefaultS3BucketName)
	v.SetDefault("storage.s3.region", DefaultS3Region)
}
