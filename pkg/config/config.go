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
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Bus          BusConfig
	Cart         CartConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Bus.validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTFLOW_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CARTFLOW_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CARTFLOW_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CARTFLOW_LOG_WARN_STACK" default:"false"`

	ShutdownGrace time.Duration `envconfig:"CARTFLOW_APP_SHUTDOWN_GRACE" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CARTFLOW_DB_DSN"`
	Driver string `envconfig:"CARTFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CARTFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"CARTFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CARTFLOW_DB_USER"`
	LegacyPassword string `envconfig:"CARTFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"CARTFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"CARTFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARTFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CARTFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CARTFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARTFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTFLOW_REDIS_URL"`
	Address      string        `envconfig:"CARTFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"CARTFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any redis endpoint was provided.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type GCPConfig struct {
	ProjectID string `envconfig:"CARTFLOW_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	CartEventsTopic        string `envconfig:"CARTFLOW_PUBSUB_CART_EVENTS_TOPIC" default:"cartflow-cart-events"`
	CartEventsSubscription string `envconfig:"CARTFLOW_PUBSUB_CART_EVENTS_SUBSCRIPTION"`
}

type BusConfig struct {
	// Transport is one of memory, redis or pubsub.
	Transport string `envconfig:"CARTFLOW_BUS_TRANSPORT" default:"memory"`
}

type CartConfig struct {
	QuantityDebounce   time.Duration `envconfig:"CARTFLOW_CART_QUANTITY_DEBOUNCE" default:"800ms"`
	PreserveSelection  bool          `envconfig:"CARTFLOW_CART_PRESERVE_SELECTION" default:"false"`
	NotificationBuffer int           `envconfig:"CARTFLOW_CART_NOTIFICATION_BUFFER" default:"50"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CARTFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CARTFLOW_AUTO_MIGRATE" default:"false"`
}

func (b BusConfig) validate(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(b.Transport)) {
	case BusTransportMemory:
		return nil
	case BusTransportRedis:
		if !cfg.Redis.Configured() {
			return fmt.Errorf("%s=redis requires %s or %s", EnvBusTransport, EnvRedisURL, EnvRedisAddr)
		}
		return nil
	case BusTransportPubSub:
		if strings.TrimSpace(cfg.GCP.ProjectID) == "" {
			return fmt.Errorf("%s=pubsub requires %s", EnvBusTransport, EnvGCPProjectID)
		}
		if strings.TrimSpace(cfg.PubSub.CartEventsSubscription) == "" {
			return fmt.Errorf("%s=pubsub requires %s", EnvBusTransport, EnvPubSubCartEventsSub)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvBusTransport, b.Transport)
	}
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = DefaultSQLiteDSN
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
