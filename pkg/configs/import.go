package configs

import (
	"time"

	"github.com/spf13/viper"
)

// ImportConfig CSV 导入配置.
type ImportConfig struct {
	MaxFileMB int64         `mapstructure:"max_file_mb" rule:"min=1"`
	ReportTTL time.Duration `mapstructure:"report_ttl"`
}

// MaxFileBytes 返回导入文件大小上限（字节）.
func (c *ImportConfig) MaxFileBytes() int64 {
	return c.MaxFileMB << 20
}

func (c *ImportConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("import.max_file_mb", 20)
	v.SetDefault("import.report_ttl", 24*time.Hour)
}
