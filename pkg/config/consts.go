package config

const (
	EnvPrefix = "lunchbox"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "LUNCHBOX_APP_ENV"
	EnvPort       = "LUNCHBOX_APP_PORT"
	EnvDBDSN      = "LUNCHBOX_DB_DSN"
	EnvDBHost     = "LUNCHBOX_DB_HOST"
	EnvDBUser     = "LUNCHBOX_DB_USER"
	EnvDBName     = "LUNCHBOX_DB_NAME"
	EnvRedisURL   = "LUNCHBOX_REDIS_URL"
	EnvJWTSecret  = "LUNCHBOX_JWT_SECRET"
	EnvJWTIssuer  = "LUNCHBOX_JWT_ISSUER"
	EnvJWTExpMins = "LUNCHBOX_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
