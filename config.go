package main

import (
	"github.com/spf13/viper"
)

// Config carries the runtime configuration, read from app.env or the
// environment.
type Config struct {
	Port                        string `mapstructure:"PORT"`
	RedisAddress                string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword               string `mapstructure:"REDIS_PASSWORD"`
	RedisDB                     int    `mapstructure:"REDIS_DB"`
	KafkaAddress                string `mapstructure:"KAFKA_ADDRESS"`
	KafkaTopic                  string `mapstructure:"KAFKA_TOPIC"`
	QueueTickSeconds            int    `mapstructure:"QUEUE_TICK_SECONDS"`
	QueueCleanupSeconds         int    `mapstructure:"QUEUE_CLEANUP_SECONDS"`
	RequestExpirySweepSeconds   int    `mapstructure:"REQUEST_EXPIRY_SWEEP_SECONDS"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REDIS_ADDRESS", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("KAFKA_ADDRESS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "user-notifications")
	viper.SetDefault("QUEUE_TICK_SECONDS", 10)
	viper.SetDefault("QUEUE_CLEANUP_SECONDS", 60)
	viper.SetDefault("REQUEST_EXPIRY_SWEEP_SECONDS", 60)

	viper.AutomaticEnv()

	// A missing config file is fine; env vars and defaults still apply.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
