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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Engine       EngineConfig
	Snapshots    SnapshotConfig
	Journal      JournalConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"XKART_APP_ENV" required:"true"`
	Port         string `envconfig:"XKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"XKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"XKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"XKART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"XKART_DB_DSN"`
	Driver string `envconfig:"XKART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"XKART_DB_HOST"`
	LegacyPort     int    `envconfig:"XKART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"XKART_DB_USER"`
	LegacyPassword string `envconfig:"XKART_DB_PASSWORD"`
	LegacyName     string `envconfig:"XKART_DB_NAME"`
	LegacySSLMode  string `envconfig:"XKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"XKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"XKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"XKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"XKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"XKART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"XKART_REDIS_ADDR"`
	Password     string        `envconfig:"XKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"XKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"XKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"XKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"XKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"XKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"XKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"XKART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"XKART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"XKART_JWT_EXPIRATION_MINUTES" required:"true"`
}

// AccessTokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type RateLimitConfig struct {
	Window         time.Duration `envconfig:"XKART_RATE_LIMIT_WINDOW" default:"1m"`
	PrincipalLimit int           `envconfig:"XKART_RATE_LIMIT_PRINCIPAL_LIMIT" default:"120"`
	IPLimit        int           `envconfig:"XKART_RATE_LIMIT_IP_LIMIT" default:"300"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"XKART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"XKART_AUTO_MIGRATE" default:"false"`
}

// EngineConfig carries the economic policy knobs of the state machine.
type EngineConfig struct {
	Deployer          string        `envconfig:"XKART_ENGINE_DEPLOYER" required:"true"`
	PlatformPrincipal string        `envconfig:"XKART_ENGINE_PLATFORM_PRINCIPAL" default:"xkart-platform"`
	TransferFee       uint64        `envconfig:"XKART_ENGINE_TRANSFER_FEE" default:"1"`
	TxWindow          time.Duration `envconfig:"XKART_ENGINE_TX_WINDOW" default:"24h"`
	PermittedDrift    time.Duration `envconfig:"XKART_ENGINE_PERMITTED_DRIFT" default:"2m"`
	OpenNFTMinting    bool          `envconfig:"XKART_ENGINE_OPEN_NFT_MINTING" default:"false"`
	CampaignSweep     time.Duration `envconfig:"XKART_ENGINE_CAMPAIGN_SWEEP_INTERVAL" default:"1m"`
}

type SnapshotConfig struct {
	Interval  time.Duration `envconfig:"XKART_SNAPSHOT_INTERVAL" default:"5m"`
	Retention time.Duration `envconfig:"XKART_SNAPSHOT_RETENTION" default:"168h"`
	KeepLast  int           `envconfig:"XKART_SNAPSHOT_KEEP_LAST" default:"12"`
}

type JournalConfig struct {
	BatchSize      int `envconfig:"XKART_JOURNAL_BATCH_SIZE" default:"100"`
	PollIntervalMS int `envconfig:"XKART_JOURNAL_POLL_MS" default:"250"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"XKART_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"XKART_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"XKART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"XKART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EngineTopic        string `envconfig:"XKART_PUBSUB_ENGINE_TOPIC" required:"true"`
	EngineSubscription string `envconfig:"XKART_PUBSUB_ENGINE_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset                string `envconfig:"XKART_BIGQUERY_DATASET" default:"xkart"`
	RaceEventsTable        string `envconfig:"XKART_BIGQUERY_RACE_TABLE" default:"race_events"`
	MarketplaceEventsTable string `envconfig:"XKART_BIGQUERY_MARKETPLACE_TABLE" default:"marketplace_events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"XKART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"XKART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"XKART_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"XKART_OUTBOX_RETENTION" default:"336h"`
}

func (db *DBConfig) ensureDSN() error {
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
