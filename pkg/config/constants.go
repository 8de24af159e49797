package config

const (
	// EnvPrefix scopes every environment variable this service reads.
	EnvPrefix = "VOUCHERS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VOUCHERS_DB_DSN"
	EnvDBHost = "VOUCHERS_DB_HOST"
	EnvDBUser = "VOUCHERS_DB_USER"
	EnvDBName = "VOUCHERS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
