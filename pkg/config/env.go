package config

const EnvPrefix = "MEMBERCARDS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	StorageBackendLocal = "local"
	StorageBackendGCS   = "gcs"
)

const (
	EnvAppEnv = "MEMBERCARDS_APP_ENV"
	EnvPort   = "MEMBERCARDS_APP_PORT"

	EnvDBDSN      = "MEMBERCARDS_DB_DSN"
	EnvDBHost     = "MEMBERCARDS_DB_HOST"
	EnvDBUser     = "MEMBERCARDS_DB_USER"
	EnvDBName     = "MEMBERCARDS_DB_NAME"
	EnvSQLitePath = "MEMBERCARDS_SQLITE_PATH"
	EnvUseSQLite  = "MEMBERCARDS_USE_SQLITE"

	EnvRedisURL = "MEMBERCARDS_REDIS_URL"

	EnvCardsProfileBaseURL   = "MEMBERCARDS_CARDS_PROFILE_BASE_URL"
	EnvCardsOutputDir        = "MEMBERCARDS_CARDS_OUTPUT_DIR"
	EnvCardsStorageBackend   = "MEMBERCARDS_CARDS_STORAGE_BACKEND"
	EnvCardsBatchConcurrency = "MEMBERCARDS_CARDS_BATCH_CONCURRENCY"
	EnvCardsQRSize           = "MEMBERCARDS_CARDS_QR_SIZE"
	EnvCardsBarcodeHeight    = "MEMBERCARDS_CARDS_BARCODE_HEIGHT"

	EnvGCSBucket = "MEMBERCARDS_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
