package config

const (
	EnvPrefix = "SMDATA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SMDATA_DB_DSN"
	EnvDBHost = "SMDATA_DB_HOST"
	EnvDBUser = "SMDATA_DB_USER"
	EnvDBName = "SMDATA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
