package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "FITLINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Returns      ReturnsConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
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
	Env          string `envconfig:"FITLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"FITLINE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FITLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FITLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FITLINE_DB_DSN"`
	Driver string `envconfig:"FITLINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FITLINE_DB_HOST"`
	Port     int    `envconfig:"FITLINE_DB_PORT" default:"5432"`
	User     string `envconfig:"FITLINE_DB_USER"`
	Password string `envconfig:"FITLINE_DB_PASSWORD"`
	Name     string `envconfig:"FITLINE_DB_NAME"`
	SSLMode  string `envconfig:"FITLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FITLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FITLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FITLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FITLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FITLINE_REDIS_URL"`
	Address      string        `envconfig:"FITLINE_REDIS_ADDRESS"`
	Password     string        `envconfig:"FITLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FITLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FITLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FITLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FITLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FITLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FITLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig covers token verification only. Sign-up, login and
// password flows live in the external identity service; this API just
// checks the tokens it minted.
type JWTConfig struct {
	Secret string `envconfig:"FITLINE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"FITLINE_JWT_ISSUER" default:"fitline-identity"`
}

type CheckoutConfig struct {
	DeliveryFeeCents int `envconfig:"FITLINE_CHECKOUT_DELIVERY_FEE_CENTS" default:"5800"`
	MaxLineQty       int `envconfig:"FITLINE_CHECKOUT_MAX_LINE_QTY" default:"20"`
}

type ReturnsConfig struct {
	MinDescriptionLen int `envconfig:"FITLINE_RETURNS_MIN_DESCRIPTION_LEN" default:"30"`
	PickupWindowDays  int `envconfig:"FITLINE_RETURNS_PICKUP_WINDOW_DAYS" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FITLINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FITLINE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"FITLINE_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"FITLINE_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"FITLINE_PUBSUB_ORDERS_TOPIC" default:"fl-order-events"`
	NotificationSubscription string `envconfig:"FITLINE_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"fl-order-events-notifications"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FITLINE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FITLINE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FITLINE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"FITLINE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for _, pair := range []struct {
		env   string
		value string
	}{
		{"FITLINE_DB_HOST", db.Host},
		{"FITLINE_DB_USER", db.User},
		{"FITLINE_DB_NAME", db.Name},
	} {
		if pair.value == "" {
			missing = append(missing, pair.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either FITLINE_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
