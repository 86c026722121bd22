package configs

import (
	"time"

	"github.com/spf13/viper"
)

// ReconcileConfig 媒体登记表与文件存储的对账任务配置.
type ReconcileConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Cron        string        `mapstructure:"cron"         rule:"required"`
	GracePeriod time.Duration `mapstructure:"grace_period"` // 未登记文件的最小存活时间，避免误删正在写入的文件
	Purge       bool          `mapstructure:"purge"`        // 为 true 时删除未登记文件，否则只报告
}

func (c *ReconcileConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.cron", "0 * * * *")
	v.SetDefault("reconcile.grace_period", time.Hour)
	v.SetDefault("reconcile.purge", false)
}
