// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	Tokens                  `yaml:"tokens"`
	Checkout                `yaml:"checkout"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// Tokens структура для выпуска access и refresh токенов.
// Секреты разных классов токенов не взаимозаменяемы.
type Tokens struct {
	AccessSecret  string        `yaml:"access_secret" env:"ACCESS_TOKEN_SECRET"`
	RefreshSecret string        `yaml:"refresh_secret" env:"REFRESH_TOKEN_SECRET"`
	AccessTTL     time.Duration `yaml:"access_ttl" env-default:"15m"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env-default:"168h"`
}

// Checkout структура для настройки клиента платёжного провайдера
// (hosted checkout): ключи, адрес API, цены и продукты тарифов.
type Checkout struct {
	ShopID          string        `yaml:"shop_id" env:"CHECKOUT_SHOP_ID"`
	SecretKey       string        `yaml:"secret_key" env:"CHECKOUT_SECRET_KEY"`
	APIURL          string        `yaml:"api_url" env-default:"https://api.checkout.example/v1"`
	ProviderTimeout time.Duration `yaml:"provider_timeout" env-default:"10s"`
	FrontendOrigin  string        `yaml:"frontend_origin" env-default:"http://localhost:5173"`
	BasicProductID  string        `yaml:"basic_product_id"`
	NormalProductID string        `yaml:"normal_product_id"`
	ProProductID    string        `yaml:"pro_product_id"`
	BasicPrice      int           `yaml:"basic_price"`
	NormalPrice     int           `yaml:"normal_price"`
	ProPrice        int           `yaml:"pro_price"`
}

// MustLoad функция для загрузки конфига, путь берется из CONFIG_PATH
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
	return &cfg
}

// IsProd сообщает, работает ли сервис в продакшен-окружении.
// От этого зависит флаг Secure у cookie.
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
