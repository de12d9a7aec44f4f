package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Proofs  ProofConfig
	Monitor MonitorConfig
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
	Env            string   `envconfig:"BACKOFFICE_APP_ENV" required:"true"`
	Port           string   `envconfig:"BACKOFFICE_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"BACKOFFICE_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"BACKOFFICE_LOG_WARN_STACK" default:"false"`
	AutoMigrateDev bool     `envconfig:"BACKOFFICE_AUTO_MIGRATE_DEV" default:"false"`
	CORSOrigins    []string `envconfig:"BACKOFFICE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BACKOFFICE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BACKOFFICE_DB_DSN"`
	Driver string `envconfig:"BACKOFFICE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BACKOFFICE_DB_HOST"`
	Port     int    `envconfig:"BACKOFFICE_DB_PORT" default:"5432"`
	User     string `envconfig:"BACKOFFICE_DB_USER"`
	Password string `envconfig:"BACKOFFICE_DB_PASSWORD"`
	Name     string `envconfig:"BACKOFFICE_DB_NAME"`
	SSLMode  string `envconfig:"BACKOFFICE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BACKOFFICE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BACKOFFICE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BACKOFFICE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BACKOFFICE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database config incomplete: set BACKOFFICE_DB_DSN or host/user/name")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"BACKOFFICE_REDIS_URL"`
	Address      string        `envconfig:"BACKOFFICE_REDIS_ADDR"`
	Password     string        `envconfig:"BACKOFFICE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BACKOFFICE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BACKOFFICE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BACKOFFICE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BACKOFFICE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BACKOFFICE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BACKOFFICE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the external auth service.
type JWTConfig struct {
	Secret string `envconfig:"BACKOFFICE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"BACKOFFICE_JWT_ISSUER" required:"true"`
}

type ProofConfig struct {
	TokenTTL      time.Duration `envconfig:"BACKOFFICE_PROOF_TOKEN_TTL" default:"168h"`
	PublicBaseURL string        `envconfig:"BACKOFFICE_PROOF_PUBLIC_BASE_URL" default:"https://backoffice.vendorbridge.io/proofs"`

	// Throttling for the unauthenticated token endpoints.
	RateLimitWindow time.Duration `envconfig:"BACKOFFICE_PROOF_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitIP     int           `envconfig:"BACKOFFICE_PROOF_RATE_LIMIT_IP" default:"30"`
	RateLimitToken  int           `envconfig:"BACKOFFICE_PROOF_RATE_LIMIT_TOKEN" default:"10"`
}

// MonitorConfig controls the monitor worker cadence. Staleness thresholds
// themselves live in the database so admins can change them at runtime.
type MonitorConfig struct {
	Interval     time.Duration `envconfig:"BACKOFFICE_MONITOR_INTERVAL" default:"15m"`
	LockKey      string        `envconfig:"BACKOFFICE_MONITOR_LOCK_KEY" default:"backoffice:monitor:lock"`
	LockTTL      time.Duration `envconfig:"BACKOFFICE_MONITOR_LOCK_TTL" default:"20m"`
	MetricsPort  string        `envconfig:"BACKOFFICE_MONITOR_METRICS_PORT" default:"9090"`
	SweepExpired bool          `envconfig:"BACKOFFICE_MONITOR_SWEEP_EXPIRED_PROOFS" default:"true"`
}

// MinMonitorInterval is the floor for the monitor cadence.
const MinMonitorInterval = 15 * time.Minute

// EffectiveInterval clamps the configured interval to the floor.
func (m MonitorConfig) EffectiveInterval() time.Duration {
	if m.Interval < MinMonitorInterval {
		return MinMonitorInterval
	}
	return m.Interval
}
