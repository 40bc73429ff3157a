package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type SlotDBConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Workdir string `mapstructure:"workdir"`
	} `mapstructure:"storage"`

	Pool struct {
		Capacity int    `mapstructure:"capacity"`
		Policy   string `mapstructure:"policy"`
	} `mapstructure:"pool"`

	Debug bool `mapstructure:"debug"`
}

func LoadConfig(path string) (*SlotDBConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("pool.capacity", 64)
	v.SetDefault("pool.policy", "lru")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg SlotDBConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
