package config

// EnvPrefix is handed to envconfig; every field carries an explicit envconfig tag.
const EnvPrefix = "CARTFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	BusTransportMemory = "memory"
	BusTransportRedis  = "redis"
	BusTransportPubSub = "pubsub"

	DefaultSQLiteDSN = "file:cartflow.db?cache=shared"
)

const (
	EnvAppEnv              = "CARTFLOW_APP_ENV"
	EnvPort                = "CARTFLOW_APP_PORT"
	EnvDBDSN               = "CARTFLOW_DB_DSN"
	EnvDBHost              = "CARTFLOW_DB_HOST"
	EnvDBUser              = "CARTFLOW_DB_USER"
	EnvDBName              = "CARTFLOW_DB_NAME"
	EnvRedisURL            = "CARTFLOW_REDIS_URL"
	EnvRedisAddr           = "CARTFLOW_REDIS_ADDR"
	EnvGCPProjectID        = "CARTFLOW_GCP_PROJECT_ID"
	EnvPubSubCartEventsSub = "CARTFLOW_PUBSUB_CART_EVENTS_SUBSCRIPTION"
	EnvBusTransport        = "CARTFLOW_BUS_TRANSPORT"
	EnvUseSQLite           = "CARTFLOW_USE_SQLITE"
	EnvQuantityDebounce    = "CARTFLOW_CART_QUANTITY_DEBOUNCE"
	EnvPreserveSelection   = "CARTFLOW_CART_PRESERVE_SELECTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
