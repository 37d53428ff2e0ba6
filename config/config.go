package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration of the application. Values are read
// from environment variables with sensible local defaults.
type Config struct {
	AppName  string `mapstructure:"APP_NAME"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Storage: "mysql" for the durable ledger, "memory" for a
	// database-free development run.
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	MySQLDSN       string `mapstructure:"MYSQL_DSN"`

	// Redis catalog cache; empty address disables caching.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("APP_NAME", "record-store-pos")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_BACKEND", "mysql")
	viper.SetDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/recordstore?parseTime=true")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")

	// AutomaticEnv alone does not populate Unmarshal; bind each key.
	for _, key := range []string{"APP_NAME", "HTTP_ADDR", "LOG_LEVEL", "STORAGE_BACKEND", "MYSQL_DSN", "REDIS_ADDR"} {
		if err := viper.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
