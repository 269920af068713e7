// config реализует конфигурацию sabha: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Провайдеры внешнего классификатора.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config: корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
//
// Если в рабочей директории есть .env, он подгружается в окружение до чтения ENV
// (уже выставленные переменные не перезаписываются).
type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	DB         DBConfig         `yaml:"db"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Classifier ClassifierConfig `yaml:"classifier"`
	S3         S3Config         `yaml:"s3"`
	Avatar     AvatarConfig     `yaml:"avatar"`
	CORS       CORSConfig       `yaml:"cors"`
	Limits     LimitsConfig     `yaml:"limits"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
}

// TimeoutConfig: общий дедлайн обработки HTTP-запроса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
}

// HTTPConfig: публичный REST-сервер (API + health/metrics).
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// DBConfig: настройки подключения к PostgreSQL.
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig: кэш refresh-токенов. Пустой URL отключает кэш.
type RedisConfig struct {
	URL    string `yaml:"url"    env:"REDIS_URL"`
	Prefix string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"sabha:rt:"`
}

// AuthConfig содержит параметры выпуска и валидации токенов.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"        env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"  env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`
	Issuer          string        `yaml:"issuer"            env:"JWT_ISSUER" env-default:"sabha"`
	Audience        []string      `yaml:"audience"          env:"JWT_AUDIENCE" env-default:"sabha-web" env-separator:","`
}

// ClassifierConfig: внешний генеративный классификатор (модерация, дайджест, подсказки).
//
// Provider:
//   - "gemini": Google Gemini (APIKey обязателен);
//   - "openai": любой OpenAI-совместимый endpoint (APIKey и Model обязательны, BaseURL опционален);
//   - "none"  : классификатор отключён: модерация пропускает всё, дайджест отдаёт значения по умолчанию.
type ClassifierConfig struct {
	Provider string        `yaml:"provider" env:"CLASSIFIER_PROVIDER" env-default:"none"`
	APIKey   string        `yaml:"api_key"  env:"CLASSIFIER_API_KEY"`
	Model    string        `yaml:"model"    env:"CLASSIFIER_MODEL" env-default:"gemini-2.5-flash"`
	BaseURL  string        `yaml:"base_url" env:"CLASSIFIER_BASE_URL"`
	Timeout  time.Duration `yaml:"timeout"  env:"CLASSIFIER_TIMEOUT" env-default:"10s"`
	// RPM: запросов в минуту к провайдеру; Burst: допустимый всплеск.
	RPM   int `yaml:"rpm"   env:"CLASSIFIER_RPM" env-default:"60"`
	Burst int `yaml:"burst" env:"CLASSIFIER_BURST" env-default:"5"`
}

// S3Config: объектное хранилище для аватаров. Пустой Endpoint отключает аватары.
type S3Config struct {
	Endpoint      string        `yaml:"endpoint"        env:"S3_ENDPOINT"`
	RootUser      string        `yaml:"root_user"       env:"S3_ROOT_USER"`
	RootPassword  string        `yaml:"root_password"   env:"S3_ROOT_PASSWORD"`
	Bucket        string        `yaml:"bucket"          env:"S3_BUCKET" env-default:"avatars"`
	PresignTTL    time.Duration `yaml:"presign_ttl"     env:"S3_PRESIGN_TTL" env-default:"15m"`
	PublicBaseURL string        `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

// AvatarConfig: ограничения на загружаемые аватары.
type AvatarConfig struct {
	MaxSizeBytes        int64    `yaml:"max_size_bytes"        env:"AVATAR_MAX_SIZE_BYTES" env-default:"5242880"`
	AllowedContentTypes []string `yaml:"allowed_content_types" env:"AVATAR_ALLOWED_CONTENT_TYPES" env-default:"image/jpeg,image/png,image/webp" env-separator:","`
}

// CORSConfig: разрешённые источники для браузерного клиента.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000" env-separator:","`
}

// LimitsConfig: лимиты выдачи и размеры выборок для классификатора.
type LimitsConfig struct {
	// Пагинация постов: page_size=0 -> берём PageDefault; верхняя граница: PageMax.
	PageDefault int32 `yaml:"page_default" env:"PAGE_DEFAULT" env-default:"20"`
	PageMax     int32 `yaml:"page_max"     env:"PAGE_MAX"     env-default:"100"`
	// DigestComments: сколько последних комментариев уходит в дайджест обсуждения.
	DigestComments int `yaml:"digest_comments" env:"DIGEST_COMMENTS" env-default:"20"`
	// SuggestionComments: сколько существующих комментариев даём как контекст для подсказок.
	SuggestionComments int `yaml:"suggestion_comments" env:"SUGGESTION_COMMENTS" env-default:"5"`
}

// AvatarsEnabled сообщает, сконфигурировано ли объектное хранилище.
func (c *Config) AvatarsEnabled() bool {
	return c.S3.Endpoint != ""
}

// MustLoad: обёртка над Load с panic при ошибке.
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

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

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

	var (
		c   *Config
		err error
	)

	switch envPath := os.Getenv("CONFIG_PATH"); {
	case path != "":
		c, err = tryRead(path)
	case envPath != "":
		c, err = tryRead(envPath)
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			c, err = tryRead("local.yaml")
			break
		}

		if err = cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
		c = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate: базовая валидация значений.
func (c *Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("db.url is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("auth token ttl must be > 0")
	}

	if c.Auth.RefreshTokenTTL < c.Auth.AccessTokenTTL {
		return fmt.Errorf("auth.refresh_token_ttl must be >= auth.access_token_ttl")
	}

	switch c.Classifier.Provider {
	case ProviderNone:
	case ProviderGemini:
		if c.Classifier.APIKey == "" {
			return fmt.Errorf("classifier.api_key is required for provider %q", c.Classifier.Provider)
		}
	case ProviderOpenAI:
		if c.Classifier.APIKey == "" || c.Classifier.Model == "" {
			return fmt.Errorf("classifier.api_key and classifier.model are required for provider %q", c.Classifier.Provider)
		}
	default:
		return fmt.Errorf("classifier.provider must be one of gemini|openai|none, got %q", c.Classifier.Provider)
	}

	if c.Classifier.Timeout <= 0 {
		return fmt.Errorf("classifier.timeout must be > 0")
	}

	if c.Classifier.RPM <= 0 || c.Classifier.Burst <= 0 {
		return fmt.Errorf("classifier.rpm and classifier.burst must be > 0")
	}

	if c.AvatarsEnabled() {
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required when s3.endpoint is set")
		}

		if c.Avatar.MaxSizeBytes <= 0 {
			return fmt.Errorf("avatar.max_size_bytes must be > 0")
		}

		if len(c.Avatar.AllowedContentTypes) == 0 {
			return fmt.Errorf("avatar.allowed_content_types must not be empty")
		}
	}

	if c.Limits.PageDefault <= 0 {
		return fmt.Errorf("limits.page_default must be > 0")
	}

	if c.Limits.PageMax <= 0 {
		return fmt.Errorf("limits.page_max must be > 0")
	}

	if c.Limits.PageDefault > c.Limits.PageMax {
		return fmt.Errorf("limits.page_default must be <= limits.page_max")
	}

	if c.Limits.DigestComments < 2 {
		return fmt.Errorf("limits.digest_comments must be >= 2")
	}

	if c.Limits.SuggestionComments < 0 {
		return fmt.Errorf("limits.suggestion_comments must be >= 0")
	}

	return nil
}
