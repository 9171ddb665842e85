package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Facebook struct {
		VerifyToken string `envconfig:"FB_VERIFY_TOKEN"`
		AccessToken string `envconfig:"FB_ACCESS_TOKEN"`
		BaseURL     string `envconfig:"FB_BASE_URL" default:"https://graph.facebook.com/v2.6"`
		SendRPS     int    `envconfig:"FB_SEND_RPS" default:"100"`
	} `envconfig:""`

	Capi struct {
		APIKey          string `envconfig:"CAPI_API_KEY"`
		BaseURL         string `envconfig:"CAPI_BASE_URL" default:"https://content.guardianapis.com"`
		DefaultImageURL string `envconfig:"DEFAULT_IMAGE_URL"`
		CacheTTLSeconds int    `envconfig:"CAPI_CACHE_TTL_SECONDS" default:"300"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Rabbit struct {
		URL           string `envconfig:"RABBIT_URL"`
		ManagementURL string `envconfig:"RABBIT_MANAGEMENT_URL"`
	} `envconfig:""`

	Queues struct {
		Notify string `envconfig:"NOTIFY_QUEUE_KEY" default:"notify_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
