// config реализует конфигурацию posts-service: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Ops      OpsConfig     `yaml:"ops"`
	DB       DBConfig      `yaml:"db"`
	Limits   LimitsConfig  `yaml:"limits"`
	Auth     AuthConfig    `yaml:"auth"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — сервисные таймауты (общий дедлайн обработки запроса).
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"5s"`
}

// HTTPConfig — сетевые настройки публичного HTTP API.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8081"`
}

// OpsConfig — служебный HTTP (health/metrics).
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"50081"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// DBConfig — настройки подключения к PostgreSQL.
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
}

// LimitsConfig — лимиты выдачи и размеров контента.
type LimitsConfig struct {
	// Пагинация: limit=0 -> берём Default; верхняя граница — Max.
	Default int32 `yaml:"default" env:"DEFAULT_LIMIT" env-default:"20"`
	Max     int32 `yaml:"max"     env:"MAX_LIMIT"     env-default:"100"`
	// MaxTitleLen/MaxContentLen — пределы длины в байтах.
	MaxTitleLen   int `yaml:"max_title_len"   env:"MAX_TITLE_LEN"   env-default:"300"`
	MaxContentLen int `yaml:"max_content_len" env:"MAX_CONTENT_LEN" env-default:"200000"`
}

// AuthConfig — секрет проверки токенов и выведения fingerprint.
type AuthConfig struct {
	JWTSecret         string `yaml:"jwt_secret"         env:"JWT_SECRET"         env-required:"true"`
	FingerprintSecret string `yaml:"fingerprint_secret" env:"FINGERPRINT_SECRET" env-required:"true"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (bool, error) {
		if p == "" {
			return false, nil
		}
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, fmt.Errorf("config: stat %s: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return false, fmt.Errorf("config: read %s: %w", p, err)
		}
		return true, nil
	}

	if ok, err := tryRead(path); err != nil {
		return nil, err
	} else if ok {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
		return validated(&cfg)
	}

	if ok, err := tryRead(os.Getenv("CONFIG_PATH")); err != nil {
		return nil, err
	} else if ok {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
		return validated(&cfg)
	}

	if ok, err := tryRead("local.yaml"); err != nil {
		return nil, err
	} else if ok {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
		return validated(&cfg)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	return validated(&cfg)
}

func validated(cfg *Config) (*Config, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate проверяет согласованность конфигурации.
func (c *Config) validate() error {
	if c.Limits.Default <= 0 {
		return fmt.Errorf("config: limits.default must be positive")
	}
	if c.Limits.Max < c.Limits.Default {
		return fmt.Errorf("config: limits.max must be >= limits.default")
	}
	if c.Limits.MaxTitleLen <= 0 || c.Limits.MaxContentLen <= 0 {
		return fmt.Errorf("config: content limits must be positive")
	}
	if c.DB.URL == "" {
		return fmt.Errorf("config: db.url is required")
	}
	if c.Auth.JWTSecret == "" || c.Auth.FingerprintSecret == "" {
		return fmt.Errorf("config: auth secrets are required")
	}
	return nil
}
