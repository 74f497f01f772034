package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Cards        CardsConfig
	GCP          GCPConfig
	GCS          GCSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Cards.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEMBERCARDS_APP_ENV" required:"true"`
	Port         string `envconfig:"MEMBERCARDS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MEMBERCARDS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEMBERCARDS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MEMBERCARDS_DB_DSN"`
	Driver string `envconfig:"MEMBERCARDS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEMBERCARDS_DB_HOST"`
	LegacyPort     int    `envconfig:"MEMBERCARDS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEMBERCARDS_DB_USER"`
	LegacyPassword string `envconfig:"MEMBERCARDS_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEMBERCARDS_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEMBERCARDS_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"MEMBERCARDS_SQLITE_PATH" default:"membercards.db"`

	MaxOpenConns    int           `envconfig:"MEMBERCARDS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEMBERCARDS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEMBERCARDS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEMBERCARDS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL           string        `envconfig:"MEMBERCARDS_REDIS_URL"`
	Address       string        `envconfig:"MEMBERCARDS_REDIS_ADDR"`
	Password      string        `envconfig:"MEMBERCARDS_REDIS_PASSWORD"`
	DB            int           `envconfig:"MEMBERCARDS_REDIS_DB" default:"0"`
	PoolSize      int           `envconfig:"MEMBERCARDS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns  int           `envconfig:"MEMBERCARDS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout   time.Duration `envconfig:"MEMBERCARDS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout   time.Duration `envconfig:"MEMBERCARDS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout  time.Duration `envconfig:"MEMBERCARDS_REDIS_WRITE_TIMEOUT" default:"5s"`
	StyleCacheTTL time.Duration `envconfig:"MEMBERCARDS_REDIS_STYLE_CACHE_TTL" default:"5m"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MEMBERCARDS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MEMBERCARDS_AUTO_MIGRATE" default:"false"`
}

type CardsConfig struct {
	ProfileBaseURL   string        `envconfig:"MEMBERCARDS_CARDS_PROFILE_BASE_URL" default:"http://localhost:3000"`
	OutputDir        string        `envconfig:"MEMBERCARDS_CARDS_OUTPUT_DIR" default:"generated/cards"`
	StorageBackend   string        `envconfig:"MEMBERCARDS_CARDS_STORAGE_BACKEND" default:"local"`
	BatchConcurrency int           `envconfig:"MEMBERCARDS_CARDS_BATCH_CONCURRENCY" default:"1"`
	LogoFetchTimeout time.Duration `envconfig:"MEMBERCARDS_CARDS_LOGO_FETCH_TIMEOUT" default:"5s"`
	QRSize           int           `envconfig:"MEMBERCARDS_CARDS_QR_SIZE" default:"200"`
	BarcodeHeight    int           `envconfig:"MEMBERCARDS_CARDS_BARCODE_HEIGHT" default:"60"`
}

// UsesGCS reports whether generated documents are persisted to a GCS bucket.
func (c CardsConfig) UsesGCS() bool {
	return strings.EqualFold(strings.TrimSpace(c.StorageBackend), StorageBackendGCS)
}

func (c CardsConfig) validate() error {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	if backend != StorageBackendLocal && backend != StorageBackendGCS {
		return fmt.Errorf("%s must be %q or %q", EnvCardsStorageBackend, StorageBackendLocal, StorageBackendGCS)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("%s must be at least 1", EnvCardsBatchConcurrency)
	}
	if c.QRSize <= 0 || c.BarcodeHeight <= 0 {
		return fmt.Errorf("%s and %s must be positive", EnvCardsQRSize, EnvCardsBarcodeHeight)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MEMBERCARDS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MEMBERCARDS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MEMBERCARDS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"MEMBERCARDS_GCS_BUCKET_NAME"`
	Prefix     string `envconfig:"MEMBERCARDS_GCS_PREFIX" default:"cards"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.SQLitePath == "" {
			return fmt.Errorf("%s is required when %s is set", EnvSQLitePath, EnvUseSQLite)
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
