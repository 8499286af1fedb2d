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
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the cartera-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	CarteraAPIBaseURL       string `mapstructure:"CARTERA_API_BASE_URL"`
	CarteraAPIKey           string `mapstructure:"CARTERA_API_KEY"`
	InternalAPIKey          string `mapstructure:"INTERNAL_API_KEY"`
	Timezone                string `mapstructure:"TIMEZONE"`
	FetchWorkers            int    `mapstructure:"FETCH_WORKERS"`
	FetchTimeoutSeconds     int    `mapstructure:"FETCH_TIMEOUT_SECONDS"`
	SummaryCacheTTLMinutes  int    `mapstructure:"SUMMARY_CACHE_TTL_MINUTES"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisCachePrefix        string `mapstructure:"REDIS_CACHE_PREFIX"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	DailyCloseRoutingKey    string `mapstructure:"DAILY_CLOSE_ROUTING_KEY"`
	DailyCloseSchedule      string `mapstructure:"DAILY_CLOSE_SCHEDULE"`
	DailyCloseEmployeesCSV  string `mapstructure:"DAILY_CLOSE_EMPLOYEES"`
}

// DailyCloseEmployees splits the configured roster into employee IDs.
func (c Config) DailyCloseEmployees() []string {
	var ids []string
	for _, raw := range strings.Split(c.DailyCloseEmployeesCSV, ",") {
		if id := strings.TrimSpace(raw); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
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
	viper.SetDefault("TIMEZONE", "America/Bogota")
	viper.SetDefault("FETCH_WORKERS", 8)
	viper.SetDefault("FETCH_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SUMMARY_CACHE_TTL_MINUTES", 10)
	viper.SetDefault("REDIS_CACHE_PREFIX", "cartera:summary")
	viper.SetDefault("DAILY_CLOSE_ROUTING_KEY", "cartera.day.closed")
	viper.SetDefault("DAILY_CLOSE_SCHEDULE", "0 21 * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("CARTERA_API_BASE_URL")
	_ = viper.BindEnv("CARTERA_API_KEY")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "CARTERA_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("TIMEZONE")
	_ = viper.BindEnv("FETCH_WORKERS")
	_ = viper.BindEnv("FETCH_TIMEOUT_SECONDS")
	_ = viper.BindEnv("SUMMARY_CACHE_TTL_MINUTES")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "CARTERA_REDIS_URL")
	_ = viper.BindEnv("REDIS_CACHE_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("DAILY_CLOSE_ROUTING_KEY")
	_ = viper.BindEnv("DAILY_CLOSE_SCHEDULE")
	_ = viper.BindEnv("DAILY_CLOSE_EMPLOYEES")

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
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("CARTERA_SERVICE_INTERNAL_API_KEY"))
	}
	config.CarteraAPIBaseURL = strings.TrimSpace(config.CarteraAPIBaseURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisCachePrefix = strings.TrimSpace(config.RedisCachePrefix)
	if config.RedisCachePrefix == "" {
		config.RedisCachePrefix = "cartera:summary"
	}

	if config.FetchWorkers <= 0 {
		config.FetchWorkers = 8
	}
	if config.FetchTimeoutSeconds <= 0 {
		config.FetchTimeoutSeconds = 30
	}
	if config.SummaryCacheTTLMinutes < 0 {
		log.Printf("level=warn component=config msg=\"negative cache ttl configured; coercing to zero\" ttl_minutes=%d", config.SummaryCacheTTLMinutes)
		config.SummaryCacheTTLMinutes = 0
	}
	if strings.TrimSpace(config.Timezone) == "" {
		config.Timezone = "America/Bogota"
	}

	return
}
