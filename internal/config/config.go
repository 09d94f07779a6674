package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"

	"github.com/Freeeeeet/appointment_bot/internal/availability"
)

type Config struct {
	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`
	DBDSN         string `envconfig:"DB_DSN" required:"true"`
	Environment   string `envconfig:"ENV" default:"development"`

	HTTPAddr  string        `envconfig:"HTTP_ADDR" default:":8080"`
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	SlotPolicy        string `envconfig:"SLOT_POLICY" default:"start_in_window"`
	InstitutionDomain string `envconfig:"INSTITUTION_DOMAIN" default:"@university.edu"`
	DigestCron        string `envconfig:"DIGEST_CRON" default:"0 8 * * *"`

	// первый администратор создаётся при старте, если задан ADMIN_EMAIL
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`

	RetryBaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
	RetryMaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
}

// Load читает .env (если есть) и переменные окружения.
// Возвращает также, был ли найден .env, чтобы main залогировал это через zap
func Load(files ...string) (*Config, bool, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	loaded := godotenv.Load(files...) == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, loaded, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, loaded, err
	}
	return &cfg, loaded, nil
}

// Validate проверяет значения, которые envconfig не умеет проверить сам
func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if _, err := availability.ParseSlotPolicy(c.SlotPolicy); err != nil {
		return fmt.Errorf("SLOT_POLICY: %w", err)
	}
	if _, err := cron.ParseStandard(c.DigestCron); err != nil {
		return fmt.Errorf("DIGEST_CRON %q: %w", c.DigestCron, err)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	return nil
}

// IsProduction включает JSON логи
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasAdminSeed задан ли администратор для создания при старте
func (c *Config) HasAdminSeed() bool {
	return c.AdminEmail != ""
}
