package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Sweep        SweepConfig
	Outbox       OutboxConfig
	WebPush      WebPushConfig
	Telegram     TelegramConfig
	LineNotify   LineNotifyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LUNCHBOX_APP_ENV" required:"true"`
	Port         string `envconfig:"LUNCHBOX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LUNCHBOX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LUNCHBOX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LUNCHBOX_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LUNCHBOX_DB_DSN"`
	Driver string `envconfig:"LUNCHBOX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LUNCHBOX_DB_HOST"`
	LegacyPort     int    `envconfig:"LUNCHBOX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LUNCHBOX_DB_USER"`
	LegacyPassword string `envconfig:"LUNCHBOX_DB_PASSWORD"`
	LegacyName     string `envconfig:"LUNCHBOX_DB_NAME"`
	LegacySSLMode  string `envconfig:"LUNCHBOX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LUNCHBOX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LUNCHBOX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LUNCHBOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LUNCHBOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LUNCHBOX_REDIS_URL" required:"true"`
	Password     string        `envconfig:"LUNCHBOX_REDIS_PASSWORD"`
	DB           int           `envconfig:"LUNCHBOX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LUNCHBOX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LUNCHBOX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LUNCHBOX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LUNCHBOX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LUNCHBOX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LUNCHBOX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LUNCHBOX_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LUNCHBOX_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LUNCHBOX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LUNCHBOX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LUNCHBOX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LUNCHBOX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LUNCHBOX_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LUNCHBOX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LUNCHBOX_AUTO_MIGRATE" default:"false"`
}

// SweepConfig drives the background jobs that close expired orders and
// queue deadline reminders.
type SweepConfig struct {
	Interval               time.Duration `envconfig:"LUNCHBOX_SWEEP_INTERVAL" default:"1m"`
	DefaultReminderMinutes int           `envconfig:"LUNCHBOX_SWEEP_DEFAULT_REMINDER_MINUTES" default:"30"`
	CloseBatchSize         int           `envconfig:"LUNCHBOX_SWEEP_CLOSE_BATCH_SIZE" default:"100"`
	LockTTL                time.Duration `envconfig:"LUNCHBOX_SWEEP_LOCK_TTL" default:"50s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LUNCHBOX_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LUNCHBOX_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LUNCHBOX_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type WebPushConfig struct {
	VAPIDPublicKey  string `envconfig:"LUNCHBOX_WEBPUSH_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"LUNCHBOX_WEBPUSH_VAPID_PRIVATE_KEY"`
	Subject         string `envconfig:"LUNCHBOX_WEBPUSH_SUBJECT" default:"mailto:ops@lunchtogether.app"`
	TTLSeconds      int    `envconfig:"LUNCHBOX_WEBPUSH_TTL_SECONDS" default:"300"`
}

type TelegramConfig struct {
	BotToken    string `envconfig:"LUNCHBOX_TELEGRAM_BOT_TOKEN"`
	BotUsername string `envconfig:"LUNCHBOX_TELEGRAM_BOT_USERNAME"`
	APIBaseURL  string `envconfig:"LUNCHBOX_TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
}

type LineNotifyConfig struct {
	ClientID     string `envconfig:"LUNCHBOX_LINE_NOTIFY_CLIENT_ID"`
	ClientSecret string `envconfig:"LUNCHBOX_LINE_NOTIFY_CLIENT_SECRET"`
	RedirectURL  string `envconfig:"LUNCHBOX_LINE_NOTIFY_REDIRECT_URL"`
	APIBaseURL   string `envconfig:"LUNCHBOX_LINE_NOTIFY_API_BASE_URL" default:"https://notify-api.line.me"`
	OAuthBaseURL string `envconfig:"LUNCHBOX_LINE_NOTIFY_OAUTH_BASE_URL" default:"https://notify-bot.line.me"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
