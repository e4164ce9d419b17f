package config

// EnvPrefix scopes every variable read by Load.
const EnvPrefix = "VINCO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv                 = "VINCO_APP_ENV"
	EnvPort                   = "VINCO_APP_PORT"
	EnvLogLevel               = "VINCO_LOG_LEVEL"
	EnvDBDSN                  = "VINCO_DB_DSN"
	EnvDBHost                 = "VINCO_DB_HOST"
	EnvDBUser                 = "VINCO_DB_USER"
	EnvDBName                 = "VINCO_DB_NAME"
	EnvRedisURL               = "VINCO_REDIS_URL"
	EnvJWTSecret              = "VINCO_JWT_SECRET"
	EnvJWTIssuer              = "VINCO_JWT_ISSUER"
	EnvJWTExpMins             = "VINCO_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "VINCO_REFRESH_TOKEN_TTL_MINUTES"
	EnvRateLimitLogin         = "VINCO_RATE_LIMIT_LOGIN"
	EnvRateLimitView          = "VINCO_RATE_LIMIT_VIEW"
	EnvUseSQLite              = "VINCO_USE_SQLITE"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
