// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек всех сервисов.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	AdminEmail              string `yaml:"admin_email"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	JWTToken                `yaml:"jwttoken"`
	Billing                 `yaml:"billing"`
	Assistant               `yaml:"assistant"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url"`
	RabbitMQMaxRetries int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"rabbitmq_retry_delay" env-default:"2s"`
}

// SMTP структура с реквизитами почтового сервера.
type SMTP struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port" env-default:"587"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Billing структура с настройками платёжного провайдера.
// PlanPrices задаёт соответствие price ID провайдера -> имя тарифа.
type Billing struct {
	BillingAPIURL        string            `yaml:"billing_api_url" env-default:"https://api.billing.example.com/v1"`
	BillingAPIKey        string            `yaml:"billing_api_key" env:"BILLING_API_KEY"`
	BillingWebhookSecret string            `yaml:"billing_webhook_secret" env:"BILLING_WEBHOOK_SECRET"`
	PlanPrices           map[string]string `yaml:"plan_prices"`
	CheckoutSuccessURL   string            `yaml:"checkout_success_url"`
	CheckoutCancelURL    string            `yaml:"checkout_cancel_url"`
}

// Assistant структура с настройками внешнего assistant API для чата поддержки.
type Assistant struct {
	AssistantAPIURL string        `yaml:"assistant_api_url" env-default:"https://api.openai.com/v1"`
	AssistantAPIKey string        `yaml:"assistant_api_key" env:"ASSISTANT_API_KEY"`
	AssistantID     string        `yaml:"assistant_id" env:"ASSISTANT_ID"`
	ThreadTTL       time.Duration `yaml:"thread_ttl" env-default:"30m"`
	RunPollInterval time.Duration `yaml:"run_poll_interval" env-default:"1s"`
	RunPollTimeout  time.Duration `yaml:"run_poll_timeout" env-default:"60s"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH.
// Отсутствие обязательных секретов интеграций приводит к немедленному завершению:
// без них соответствующие обработчики не могут обслужить ни одного запроса.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if cfg.BillingWebhookSecret == "" {
		log.Fatal("billing_webhook_secret is not set")
	}
	if cfg.AssistantAPIKey == "" {
		log.Fatal("assistant_api_key is not set")
	}
	if cfg.AssistantID == "" {
		log.Fatal("assistant_id is not set")
	}
	return &cfg
}
