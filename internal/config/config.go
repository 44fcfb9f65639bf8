// Package config предоставляет структуры и функции для загрузки конфига демона очистки.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы key/value хранилища профиля.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	Timezone        string `yaml:"timezone" env:"TIMEZONE" env-default:"Local"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	Store           `yaml:"store"`
	RabbitMQ        `yaml:"rabbitmq"`
	Trial           `yaml:"trial"`
	Deletion        `yaml:"deletion"`
	HTTPServer      `yaml:"http_server"`
	API             `yaml:"api"`
}

// Storage структура для выбора и настройки хранилища профиля.
type Storage struct {
	Driver           string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis"`
	KeyPrefix        string `yaml:"key_prefix" env:"STORAGE_KEY_PREFIX" env-default:"cleaner:"`
	ConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath   string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// Store структура для настройки клиента платформенного магазина.
type Store struct {
	BaseURL      string        `yaml:"base_url" env:"STORE_BASE_URL" env-default:"http://localhost:8090"`
	APIKey       string        `yaml:"api_key" env:"STORE_API_KEY"`
	StoreTimeout time.Duration `yaml:"timeout" env:"STORE_TIMEOUT" env-default:"10s"`
	ProductIDs   []string      `yaml:"product_ids" env:"STORE_PRODUCT_IDS" env-default:"com.cleaner.subscription.weekly,com.cleaner.subscription.yearly,com.cleaner.lifetime"`
	RootCertPath string        `yaml:"root_cert_path" env:"STORE_ROOT_CERT_PATH"`
}

// RabbitMQ структура для настройки потока обновлений транзакций и событий профиля.
type RabbitMQ struct {
	URL              string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange         string        `yaml:"exchange" env-default:"store"`
	TransactionQueue string        `yaml:"transaction_queue" env-default:"store.transactions"`
	TransactionKey   string        `yaml:"transaction_key" env-default:"transaction"`
	EventsKey        string        `yaml:"events_key" env-default:"profile"`
	Retries          int           `yaml:"retries" env-default:"5"`
	RetryDelay       time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Trial структура для настройки пробного периода.
type Trial struct {
	TrialDuration   time.Duration `yaml:"duration" env:"TRIAL_DURATION" env-default:"72h"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"REFRESH_INTERVAL" env-default:"1h"`
}

// Deletion структура для настройки пакетов удаления.
type Deletion struct {
	ReservationTTL time.Duration `yaml:"reservation_ttl" env-default:"10m"`
}

// HTTPServer структура для настройки локального API.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:"127.0.0.1:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"15s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// API структура для настройки доступа к локальному API.
type API struct {
	TokenHash string  `yaml:"token_hash" env:"API_TOKEN_HASH"`
	RateLimit float64 `yaml:"rate_limit" env-default:"10"`
	RateBurst int     `yaml:"rate_burst" env-default:"20"`
}

// MustLoad загружает конфиг из файла CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла, применяет переменные окружения и значения по умолчанию.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverRedis, DriverMemory:
	case DriverPostgres:
		if c.ConnectionString == "" {
			return errors.New("storage.connection_string is required for postgres driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Driver)
	}
	if len(c.ProductIDs) == 0 {
		return errors.New("store.product_ids must not be empty")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("store.timeout must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location возвращает часовой пояс календаря, по которому сбрасывается дневная квота.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Timezone: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  KeyPrefix: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"Store:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"  Products: %v\n"+
			"RabbitMQ:\n"+
			"  Queue: %s\n"+
			"Trial: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n",
		c.Env,
		c.Timezone,
		c.Driver,
		c.KeyPrefix,
		c.AddressRedis,
		c.DB,
		c.BaseURL,
		c.StoreTimeout,
		c.ProductIDs,
		c.TransactionQueue,
		c.TrialDuration,
		c.AddressHTTP,
	)
}
