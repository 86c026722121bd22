package configs

import "github.com/spf13/viper"

// EventsConfig 控制领域事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled     bool                 `mapstructure:"enabled"`      // 总开关
	LogConsumer bool                 `mapstructure:"log_consumer"` // 订阅全部事件并写入日志
	Employee    EmployeeEventsConfig `mapstructure:"employee"`
	Media       MediaEventsConfig    `mapstructure:"media"`
}

// EmployeeEventsConfig 员工领域事件开关.
type EmployeeEventsConfig struct {
	Created  bool `mapstructure:"created"`
	Updated  bool `mapstructure:"updated"`
	Deleted  bool `mapstructure:"deleted"`
	Imported bool `mapstructure:"imported"`
}

// MediaEventsConfig 媒体领域事件开关.
type MediaEventsConfig struct {
	Stored  bool `mapstructure:"stored"`
	Deleted bool `mapstructure:"deleted"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.log_consumer", false)

	v.SetDefault("events.employee.created", true)
	v.SetDefault("events.employee.updated", true)
	v.SetDefault("events.employee.deleted", true)
	v.SetDefault("events.employee.imported", true)

	v.SetDefault("events.media.stored", true)
	v.SetDefault("events.media.deleted", true)
}
