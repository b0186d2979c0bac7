package config

const (
	EnvPrefix = "STOREYARD"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREYARD_APP_ENV"
	EnvAppPort  = "STOREYARD_APP_PORT"
	EnvRedisURL = "STOREYARD_REDIS_URL"

	EnvDBDSN  = "STOREYARD_DB_DSN"
	EnvDBHost = "STOREYARD_DB_HOST"
	EnvDBUser = "STOREYARD_DB_USER"
	EnvDBName = "STOREYARD_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
