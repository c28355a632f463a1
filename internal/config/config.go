package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           string        `envconfig:"PORT" default:"8006"`
	AppEnv         string        `envconfig:"APP_ENV" default:"production"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	CORSOrigins    []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	DB  Database
	OTP OTP

	Notifier      string `envconfig:"NOTIFIER" default:"log"` // smtp | kafka | log
	SMTP          SMTP
	KafkaBrokers  string        `envconfig:"KAFKA_BROKERS" default:""`
	OtpTopic      string        `envconfig:"KAFKA_OTP_TOPIC" default:"otp-notifications"`
	OrderTopic    string        `envconfig:"KAFKA_ORDER_TOPIC" default:"order-events"`
	RelayInterval time.Duration `envconfig:"OUTBOX_RELAY_INTERVAL" default:"2s"`
	RelayBatch    int           `envconfig:"OUTBOX_RELAY_BATCH" default:"100"`

	SeedRestaurantsFile string `envconfig:"SEED_RESTAURANTS_FILE" default:""`
}

type Database struct {
	URL      string `envconfig:"DATABASE_URL" default:""`
	Database string `envconfig:"BLUEPRINT_DB_DATABASE" default:"checkout"`
	Password string `envconfig:"BLUEPRINT_DB_PASSWORD" default:""`
	Username string `envconfig:"BLUEPRINT_DB_USERNAME" default:"postgres"`
	Port     string `envconfig:"BLUEPRINT_DB_PORT" default:"5432"`
	Host     string `envconfig:"BLUEPRINT_DB_HOST" default:"localhost"`
	Schema   string `envconfig:"BLUEPRINT_DB_SCHEMA" default:"public"`
}

// DSN returns DATABASE_URL when set, otherwise builds one from the
// BLUEPRINT_DB_* parts.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.Schema,
	)
}

type OTP struct {
	TTL            time.Duration `envconfig:"OTP_TTL" default:"5m"`
	Length         int           `envconfig:"OTP_LENGTH" default:"6"`
	VerifiedWindow time.Duration `envconfig:"OTP_VERIFIED_WINDOW" default:"15m"`
	SweepInterval  time.Duration `envconfig:"OTP_SWEEP_INTERVAL" default:"1m"`
}

type SMTP struct {
	Host     string `envconfig:"SMTP_HOST" default:""`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME" default:""`
	Password string `envconfig:"SMTP_PASSWORD" default:""`
	From     string `envconfig:"SMTP_FROM" default:""`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.OTP.Length < 4 || c.OTP.Length > 9 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 9, got %d", c.OTP.Length)
	}
	for name, d := range map[string]time.Duration{
		"OTP_TTL":               c.OTP.TTL,
		"OTP_VERIFIED_WINDOW":   c.OTP.VerifiedWindow,
		"OTP_SWEEP_INTERVAL":    c.OTP.SweepInterval,
		"OUTBOX_RELAY_INTERVAL": c.RelayInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.RelayBatch <= 0 {
		return fmt.Errorf("OUTBOX_RELAY_BATCH must be positive, got %d", c.RelayBatch)
	}
	switch c.Notifier {
	case "log":
	case "smtp":
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			return fmt.Errorf("NOTIFIER=smtp requires SMTP_HOST and SMTP_FROM")
		}
	case "kafka":
		if c.KafkaBrokers == "" {
			return fmt.Errorf("NOTIFIER=kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
