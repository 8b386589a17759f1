package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "miniapp_shop_dev_secret"

type ShopScopePolicy string

const (
	ScopeSubstitute ShopScopePolicy = "substitute"
	ScopeReject     ShopScopePolicy = "reject"
)

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

type Config struct {
	AppEnv string
	Port   string

	DBDriver string
	DBDSN    string

	BotToken       string
	TelegramAPIURL string
	InitDataMaxAge time.Duration
	NotifyTimeout  time.Duration

	JWTSecret  []byte
	SessionTTL time.Duration

	PresidentUsername string
	ShopScopePolicy   ShopScopePolicy
	LegacyTelegramID  bool
	DevMode           bool

	StorageProvider string
	UploadDir       string
	PublicBaseURL   string
	S3              S3Config

	AuthRateLimit float64 // requests per second per IP, 0 disables

	LogLevel string
	LogFile  string

	// Warnings collects non-fatal problems found while loading; main logs
	// them once a logger exists.
	Warnings []string
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "3000"),
		DBDriver:          getEnv("DB_DRIVER", "sqlite"),
		DBDSN:             getEnv("DB_DSN", "shop.db"),
		BotToken:          os.Getenv("BOT_TOKEN"),
		TelegramAPIURL:    getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		JWTSecret:         []byte(getEnv("JWT_SECRET", defaultJWTSecret)),
		PresidentUsername: strings.TrimPrefix(getEnv("PRESIDENT_USERNAME", "asg_1f"), "@"),
		ShopScopePolicy:   ShopScopePolicy(strings.ToLower(getEnv("SHOP_SCOPE_POLICY", string(ScopeSubstitute)))),
		StorageProvider:   strings.ToLower(getEnv("STORAGE_PROVIDER", "local")),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL:     strings.TrimSuffix(os.Getenv("PUBLIC_BASE_URL"), "/"),
		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PublicURL: strings.TrimSuffix(os.Getenv("S3_PUBLIC_URL"), "/"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}

	cfg.SessionTTL = cfg.duration("SESSION_TTL", 24*time.Hour)
	cfg.NotifyTimeout = cfg.duration("NOTIFY_TIMEOUT", 5*time.Second)
	cfg.InitDataMaxAge = cfg.duration("TELEGRAM_INITDATA_MAX_AGE", 0)
	cfg.LegacyTelegramID = cfg.boolean("LEGACY_TELEGRAM_ID_HEADER", false)
	cfg.AuthRateLimit = cfg.float("AUTH_RATE_LIMIT", 5)

	if cfg.ShopScopePolicy != ScopeSubstitute && cfg.ShopScopePolicy != ScopeReject {
		cfg.warnf("unknown SHOP_SCOPE_POLICY %q, using %q", cfg.ShopScopePolicy, ScopeSubstitute)
		cfg.ShopScopePolicy = ScopeSubstitute
	}

	if cfg.boolean("DEV_MODE", false) {
		switch {
		case !devModeCompiled:
			cfg.warnf("DEV_MODE requested but this binary was built without the devmode tag; ignoring")
		case cfg.IsProduction():
			cfg.warnf("DEV_MODE requested with APP_ENV=production; ignoring")
		default:
			cfg.DevMode = true
		}
	}

	return cfg
}

// Validate reports settings the server must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() {
		if c.BotToken == "" {
			errs = append(errs, errors.New("BOT_TOKEN is required in production"))
		}
		if string(c.JWTSecret) == defaultJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production"))
		}
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	switch c.StorageProvider {
	case "local":
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_PROVIDER=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_PROVIDER %q", c.StorageProvider))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// bare integers are seconds
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	c.warnf("invalid %s=%q, using %s", key, v, fallback)
	return fallback
}

func (c *Config) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.warnf("invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func (c *Config) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		c.warnf("invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}
