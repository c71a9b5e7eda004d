// Package config предоставляет структуры и функции для загрузки конфигурации консоли.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Окружения, влияющие на формат логов.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	AMQP                    AMQP      `yaml:"amqp"`
	Console                 Console   `yaml:"console"`
	Telemetry               Telemetry `yaml:"telemetry"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis,
// где бэкенд хранит сессии и публикует смену состояния аутентификации.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken настройки токенов сессии.
type JWTToken struct {
	JWTSecretKey  string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL      time.Duration `yaml:"token_ttl" env-default:"1h"`
	RefreshBefore time.Duration `yaml:"refresh_before" env-default:"5m"`
}

// AMQP настройки публикации доменных событий. Пустой URL отключает публикацию.
type AMQP struct {
	URL      string `yaml:"url" env:"AMQP_URL"`
	Exchange string `yaml:"exchange" env-default:"console.events"`
}

// Console настройки клиентов консоли (по одному на браузер).
type Console struct {
	CookieName      string        `yaml:"cookie_name" env-default:"fap_client"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	ClientIdleTTL   time.Duration `yaml:"client_idle_ttl" env-default:"30m"`
	GuardWait       time.Duration `yaml:"guard_wait" env-default:"2s"`
	LoginWait       time.Duration `yaml:"login_wait" env-default:"3s"`
	DefaultLanguage string        `yaml:"default_language" env-default:"en"`
}

// Telemetry настройки экспорта трассировок OTLP. Пустой endpoint отключает экспорт.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure     bool   `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load читает конфиг из YAML-файла с переопределением через переменные окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if path == "" {
		return nil, fmt.Errorf("%s: CONFIG_PATH is not set", op)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Console.DefaultLanguage != "en" && cfg.Console.DefaultLanguage != "ar" {
		return nil, fmt.Errorf("%s: unsupported default_language %q", op, cfg.Console.DefaultLanguage)
	}
	return &cfg, nil
}

// MustLoad загружает .env (если есть) и конфиг по пути из CONFIG_PATH, при ошибке завершает процесс.
func MustLoad() *Config {
	_ = godotenv.Load()
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Redis: %s db=%d\n"+
			"HTTPServer: %s timeout=%s idle=%s\n"+
			"TokenTTL: %s refresh_before=%s\n"+
			"AMQP enabled: %t\n"+
			"Console: cookie=%s idle_ttl=%s lang=%s\n",
		c.Env,
		c.AddressRedis, c.DB,
		c.AddressHTTP, c.TimeoutHTTP, c.IdleTimeout,
		c.TokenTTL, c.RefreshBefore,
		c.AMQP.URL != "",
		c.Console.CookieName, c.Console.ClientIdleTTL, c.Console.DefaultLanguage,
	)
}
