/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the admin-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string   `mapstructure:"SERVER_PORT"`
	DatabaseURL             string   `mapstructure:"DATABASE_URL"`
	RedisURL                string   `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string   `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL             string   `mapstructure:"RABBITMQ_URL"`
	FlashAdminAPIURL        string   `mapstructure:"FLASH_ADMIN_API_URL"`
	AdminAPIKey             string   `mapstructure:"ADMIN_API_KEY"`
	AdminJWTSecret          string   `mapstructure:"ADMIN_JWT_SECRET"`
	AlertRateLimitPerMinute int      `mapstructure:"ALERT_RATE_LIMIT_PER_MINUTE"`
	AllowedOrigins          []string `mapstructure:"-"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "flash_admin:rate_limit")
	viper.SetDefault("ALERT_RATE_LIMIT_PER_MINUTE", 5)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("FLASH_ADMIN_API_URL")
	_ = viper.BindEnv("ADMIN_API_KEY")
	_ = viper.BindEnv("ADMIN_JWT_SECRET")
	_ = viper.BindEnv("ALERT_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("ALLOWED_ORIGINS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)
	config.FlashAdminAPIURL = strings.TrimSpace(config.FlashAdminAPIURL)
	config.AdminAPIKey = strings.TrimSpace(config.AdminAPIKey)
	config.AdminJWTSecret = strings.TrimSpace(config.AdminJWTSecret)

	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "flash_admin:rate_limit"
	}

	// The panel JWT secret falls back to the API signing key so a single
	// shared secret deployment works out of the box.
	if config.AdminJWTSecret == "" {
		config.AdminJWTSecret = config.AdminAPIKey
	}

	if config.AlertRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative alert rate limit configured; disabling limiter\" limit=%d", config.AlertRateLimitPerMinute)
		config.AlertRateLimitPerMinute = 0
	}

	if origins := strings.TrimSpace(viper.GetString("ALLOWED_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, origin)
			}
		}
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}

	if config.DatabaseURL == "" {
		return config, errors.New("DATABASE_URL must be set")
	}
	if config.AdminAPIKey == "" {
		return config, errors.New("ADMIN_API_KEY must be set")
	}

	return config, nil
}
