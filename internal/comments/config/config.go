// config реализует конфигурацию comments-service: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/pribylovaa/go-blog-platform/internal/comments/moderation"
	"github.com/pribylovaa/go-blog-platform/internal/comments/moderation/tracker"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	Ops        OpsConfig        `yaml:"ops"`
	DB         DBConfig         `yaml:"db"`
	Limits     LimitsConfig     `yaml:"limits"`
	Moderation ModerationConfig `yaml:"moderation"`
	Tracker    tracker.Config   `yaml:"tracker"`
	Posts      PostsConfig      `yaml:"posts"`
	Auth       AuthConfig       `yaml:"auth"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
}

// TimeoutConfig — сервисные таймауты (общий дедлайн обработки запроса).
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"5s"`
}

// HTTPConfig — сетевые настройки публичного HTTP API.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8082"`
}

// OpsConfig — служебный HTTP (health/metrics).
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"50082"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// DBConfig — настройки подключения к MongoDB.
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
}

// LimitsConfig — лимиты на выдачу, глубину дерева и длину контента.
type LimitsConfig struct {
	// Пагинация: limit=0 -> берём Default; верхняя граница — Max.
	Default int32 `yaml:"default"   env:"DEFAULT_LIMIT" env-default:"20"`
	Max     int32 `yaml:"max"       env:"MAX_LIMIT"     env-default:"100"`
	// Максимально допустимая глубина ветвления (level). Корень = 0.
	MaxDepth int32 `yaml:"max_depth" env:"MAX_DEPTH"    env-default:"3"`
	// MaxContentLen — жёсткий предел длины контента в байтах (после
	// нормализации); выше — ошибка валидации, а не сигнал.
	MaxContentLen int `yaml:"max_content_len" env:"MAX_CONTENT_LEN" env-default:"10000"`
}

// ModerationConfig — параметры пайплайна модерации.
type ModerationConfig struct {
	Score moderation.ScoreConfig `yaml:"score"`
	// EditWindow — окно правки комментария от момента создания.
	EditWindow time.Duration `yaml:"edit_window" env:"EDIT_WINDOW" env-default:"24h"`
	// ReportThreshold — количество жалоб, переводящее approved в flagged.
	ReportThreshold int32 `yaml:"report_threshold" env:"REPORT_THRESHOLD" env-default:"3"`
}

// PostsConfig — клиент posts-service для проверки существования поста.
type PostsConfig struct {
	BaseURL string        `yaml:"base_url" env:"POSTS_BASE_URL" env-required:"true"`
	Timeout time.Duration `yaml:"timeout"  env:"POSTS_TIMEOUT"  env-default:"2s"`
	// CacheURL — опциональный Redis для кэша существования постов;
	// пустое значение отключает кэш.
	CacheURL string        `yaml:"cache_url" env:"POSTS_CACHE_URL"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"POSTS_CACHE_TTL" env-default:"5m"`
}

// AuthConfig — секреты проверки токенов и выведения fingerprint.
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

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		c, err := tryRead(path)
		if err != nil {
			return nil, err
		}

		if err := c.validate(); err != nil {
			return nil, err
		}

		return c, nil
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		c, err := tryRead(envPath)
		if err != nil {
			return nil, err
		}

		if err := c.validate(); err != nil {
			return nil, err
		}

		return c, nil
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if err := cfg.validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("db.url is required")
	}

	if c.Limits.Default <= 0 {
		return fmt.Errorf("limits.default must be > 0")
	}

	if c.Limits.Max <= 0 {
		return fmt.Errorf("limits.max must be > 0")
	}

	if c.Limits.Default > c.Limits.Max {
		return fmt.Errorf("limits.default must be <= limits.max")
	}

	if c.Limits.MaxDepth <= 0 {
		return fmt.Errorf("limits.max_depth must be > 0")
	}

	if c.Limits.MaxDepth > 32 {
		return fmt.Errorf("limits.max_depth is too large (<= 32)")
	}

	if c.Limits.MaxContentLen <= 0 {
		return fmt.Errorf("limits.max_content_len must be > 0")
	}

	if c.Moderation.EditWindow < time.Minute {
		return fmt.Errorf("moderation.edit_window must be at least 1m")
	}

	if c.Moderation.ReportThreshold <= 0 {
		return fmt.Errorf("moderation.report_threshold must be > 0")
	}

	if c.Moderation.Score.SpamThreshold <= 0 {
		return fmt.Errorf("moderation.score.spam_threshold must be > 0")
	}

	if c.Moderation.Score.SuspiciousThreshold <= 0 {
		return fmt.Errorf("moderation.score.suspicious_threshold must be > 0")
	}

	if c.Moderation.Score.SuspiciousThreshold > c.Moderation.Score.SpamThreshold {
		return fmt.Errorf("moderation.score.suspicious_threshold must be <= spam_threshold")
	}

	if c.Posts.BaseURL == "" {
		return fmt.Errorf("posts.base_url is required")
	}

	if c.Posts.Timeout <= 0 {
		return fmt.Errorf("posts.timeout must be > 0")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Auth.FingerprintSecret == "" {
		return fmt.Errorf("auth.fingerprint_secret is required")
	}

	return nil
}
