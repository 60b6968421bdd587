package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "MARKETADMIN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "MARKETADMIN_APP_ENV"
	EnvPort     = "MARKETADMIN_APP_PORT"
	EnvLogLevel = "MARKETADMIN_LOG_LEVEL"

	EnvDBDSN  = "MARKETADMIN_DB_DSN"
	EnvDBHost = "MARKETADMIN_DB_HOST"
	EnvDBUser = "MARKETADMIN_DB_USER"
	EnvDBName = "MARKETADMIN_DB_NAME"

	EnvRedisURL = "MARKETADMIN_REDIS_URL"

	EnvJWTSecret  = "MARKETADMIN_JWT_SECRET"
	EnvJWTIssuer  = "MARKETADMIN_JWT_ISSUER"
	EnvJWTExpMins = "MARKETADMIN_JWT_EXPIRATION_MINUTES"

	EnvCommissionPageSize    = "MARKETADMIN_COMMISSION_PAGE_SIZE"
	EnvCommissionMaxPageSize = "MARKETADMIN_COMMISSION_MAX_PAGE_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
