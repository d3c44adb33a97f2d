package config

const (
	EnvPrefix = "TILLPOINT"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv = "TILLPOINT_APP_ENV"
	EnvPort   = "TILLPOINT_APP_PORT"

	EnvDBDSN  = "TILLPOINT_DB_DSN"
	EnvDBHost = "TILLPOINT_DB_HOST"
	EnvDBUser = "TILLPOINT_DB_USER"
	EnvDBName = "TILLPOINT_DB_NAME"

	EnvRedisURL = "TILLPOINT_REDIS_URL"

	EnvJWTSecret = "TILLPOINT_JWT_SECRET"
	EnvJWTIssuer = "TILLPOINT_JWT_ISSUER"

	EnvCatalogBaseURL = "TILLPOINT_CATALOG_BASE_URL"
	EnvOrdersBaseURL  = "TILLPOINT_ORDERS_BASE_URL"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
