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
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	Idempotency  IdempotencyConfig
	FeatureFlags FeatureFlagsConfig
	Metrics      MetricsConfig
	CORS         CORSConfig
	Reconcile    ReconcileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.RateLimit.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VINCO_APP_ENV" required:"true"`
	Port         string `envconfig:"VINCO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VINCO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VINCO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VINCO_DB_DSN"`
	Driver string `envconfig:"VINCO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VINCO_DB_HOST"`
	Port     int    `envconfig:"VINCO_DB_PORT" default:"5432"`
	User     string `envconfig:"VINCO_DB_USER"`
	Password string `envconfig:"VINCO_DB_PASSWORD"`
	Name     string `envconfig:"VINCO_DB_NAME"`
	SSLMode  string `envconfig:"VINCO_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"VINCO_DB_SQLITE_PATH" default:"vinco.db"`

	MaxOpenConns    int           `envconfig:"VINCO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VINCO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VINCO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VINCO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VINCO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VINCO_REDIS_ADDR"`
	Password     string        `envconfig:"VINCO_REDIS_PASSWORD"`
	DB           int           `envconfig:"VINCO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VINCO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VINCO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VINCO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VINCO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VINCO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VINCO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VINCO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"VINCO_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"VINCO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VINCO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VINCO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VINCO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VINCO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VINCO_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig holds the fixed-window limits expressed as "N/period".
type RateLimitConfig struct {
	Enabled bool   `envconfig:"VINCO_RATE_LIMIT_ENABLED" default:"true"`
	Login   string `envconfig:"VINCO_RATE_LIMIT_LOGIN" default:"5/h"`
	View    string `envconfig:"VINCO_RATE_LIMIT_VIEW" default:"100/h"`
}

// LoginRate parses the login limit.
func (r RateLimitConfig) LoginRate() (Rate, error) {
	return ParseRate(r.Login)
}

// ViewRate parses the per-path view limit.
func (r RateLimitConfig) ViewRate() (Rate, error) {
	return ParseRate(r.View)
}

func (r RateLimitConfig) validate() error {
	if _, err := r.LoginRate(); err != nil {
		return fmt.Errorf("%s: %w", EnvRateLimitLogin, err)
	}
	if _, err := r.ViewRate(); err != nil {
		return fmt.Errorf("%s: %w", EnvRateLimitView, err)
	}
	return nil
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"VINCO_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VINCO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VINCO_AUTO_MIGRATE" default:"false"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"VINCO_METRICS_ENABLED" default:"true"`
}

// ReconcileConfig drives the scheduled tank balance check.
type ReconcileConfig struct {
	Interval    time.Duration `envconfig:"VINCO_RECONCILE_INTERVAL" default:"24h"`
	Concurrency int           `envconfig:"VINCO_RECONCILE_CONCURRENCY" default:"4"`
	LockTTL     time.Duration `envconfig:"VINCO_RECONCILE_LOCK_TTL" default:"2h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"VINCO_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = DriverSQLite
		db.DSN = db.SQLitePath
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
