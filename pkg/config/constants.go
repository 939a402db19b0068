package config

const (
	EnvPrefix = "VENDORA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "VENDORA_APP_ENV"
	EnvPort   = "VENDORA_APP_PORT"

	EnvDBDSN  = "VENDORA_DB_DSN"
	EnvDBHost = "VENDORA_DB_HOST"
	EnvDBUser = "VENDORA_DB_USER"
	EnvDBName = "VENDORA_DB_NAME"

	EnvRedisURL  = "VENDORA_REDIS_URL"
	EnvJWTSecret = "VENDORA_JWT_SECRET"
	EnvJWTIssuer = "VENDORA_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
