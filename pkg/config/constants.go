package config

// EnvPrefix is the envconfig prefix; every field also carries an explicit
// XKART_ tag so the prefix only matters for untagged additions.
const EnvPrefix = "xkart"

const (
	AppEnvDev  = "dev"
	AppEnvTest = "test"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "XKART_APP_ENV"
	EnvPort   = "XKART_APP_PORT"

	EnvDBDSN  = "XKART_DB_DSN"
	EnvDBHost = "XKART_DB_HOST"
	EnvDBUser = "XKART_DB_USER"
	EnvDBName = "XKART_DB_NAME"

	EnvRedisURL = "XKART_REDIS_URL"

	EnvJWTSecret  = "XKART_JWT_SECRET"
	EnvJWTIssuer  = "XKART_JWT_ISSUER"
	EnvJWTExpMins = "XKART_JWT_EXPIRATION_MINUTES"

	EnvEngineDeployer = "XKART_ENGINE_DEPLOYER"

	EnvGCPProjectID = "XKART_GCP_PROJECT_ID"

	EnvPubSubEngineTopic = "XKART_PUBSUB_ENGINE_TOPIC"
	EnvPubSubEngineSub   = "XKART_PUBSUB_ENGINE_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
