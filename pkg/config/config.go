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
	Eventing     EventingConfig
	PubSub       PubSubConfig
	GCP          GCPConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
	Vendors      VendorsConfig
	Rewards      RewardsConfig
	Referrals    ReferralsConfig
	Reconciler   ReconcilerConfig
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
	Env          string `envconfig:"SMDATA_APP_ENV" required:"true"`
	Port         string `envconfig:"SMDATA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SMDATA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SMDATA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SMDATA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SMDATA_DB_DSN"`
	Driver string `envconfig:"SMDATA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SMDATA_DB_HOST"`
	LegacyPort     int    `envconfig:"SMDATA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SMDATA_DB_USER"`
	LegacyPassword string `envconfig:"SMDATA_DB_PASSWORD"`
	LegacyName     string `envconfig:"SMDATA_DB_NAME"`
	LegacySSLMode  string `envconfig:"SMDATA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SMDATA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SMDATA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SMDATA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SMDATA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SMDATA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SMDATA_REDIS_ADDR"`
	Password     string        `envconfig:"SMDATA_REDIS_PASSWORD"`
	DB           int           `envconfig:"SMDATA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SMDATA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SMDATA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SMDATA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SMDATA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SMDATA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SMDATA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SMDATA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SMDATA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SMDATA_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"SMDATA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SMDATA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SMDATA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SMDATA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PurchaseTopic         string `envconfig:"SMDATA_PUBSUB_PURCHASE_TOPIC" default:"smd-purchase-events"`
	RewardsSubscription   string `envconfig:"SMDATA_PUBSUB_REWARDS_SUBSCRIPTION" required:"true"`
	ReferralsSubscription string `envconfig:"SMDATA_PUBSUB_REFERRALS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SMDATA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SMDATA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SMDATA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// VendorsConfig carries the credentials and timeouts for the external VTU
// providers. A vendor with an empty BaseURL is treated as disabled.
type VendorsConfig struct {
	CallTimeout time.Duration `envconfig:"SMDATA_VENDOR_CALL_TIMEOUT" default:"30s"`
	MaxRetries  int           `envconfig:"SMDATA_VENDOR_MAX_RETRIES" default:"2"`

	VTPassBaseURL   string `envconfig:"SMDATA_VTPASS_BASE_URL"`
	VTPassAPIKey    string `envconfig:"SMDATA_VTPASS_API_KEY"`
	VTPassSecretKey string `envconfig:"SMDATA_VTPASS_SECRET_KEY"`

	ClubKonnectBaseURL string `envconfig:"SMDATA_CLUBKONNECT_BASE_URL"`
	ClubKonnectUserID  string `envconfig:"SMDATA_CLUBKONNECT_USER_ID"`
	ClubKonnectAPIKey  string `envconfig:"SMDATA_CLUBKONNECT_API_KEY"`

	PayscribeBaseURL string `envconfig:"SMDATA_PAYSCRIBE_BASE_URL"`
	PayscribeToken   string `envconfig:"SMDATA_PAYSCRIBE_TOKEN"`
}

type RewardsConfig struct {
	CashbackPerGBKobo     int64 `envconfig:"SMDATA_CASHBACK_PER_GB_KOBO" default:"500"`
	AirtimeUnitKobo       int64 `envconfig:"SMDATA_CASHBACK_AIRTIME_UNIT_KOBO" default:"100000"`
	AirtimePerUnitKobo    int64 `envconfig:"SMDATA_CASHBACK_AIRTIME_PER_UNIT_KOBO" default:"1000"`
	MinWithdrawalKobo     int64 `envconfig:"SMDATA_CASHBACK_MIN_WITHDRAWAL_KOBO" default:"10000"`
	CashbackEnabled       bool  `envconfig:"SMDATA_CASHBACK_ENABLED" default:"true"`
	DataCategoryOnlyAward bool  `envconfig:"SMDATA_CASHBACK_DATA_ONLY" default:"false"`
}

type ReferralsConfig struct {
	ReferrerBonusKobo int64 `envconfig:"SMDATA_REFERRAL_REFERRER_BONUS_KOBO" default:"20000"`
	RefereeBonusKobo  int64 `envconfig:"SMDATA_REFERRAL_REFEREE_BONUS_KOBO" default:"10000"`
	MinQualifyingGB   int   `envconfig:"SMDATA_REFERRAL_MIN_QUALIFYING_GB" default:"1"`
	Enabled           bool  `envconfig:"SMDATA_REFERRAL_ENABLED" default:"true"`
}

type ReconcilerConfig struct {
	Interval     time.Duration `envconfig:"SMDATA_RECONCILER_INTERVAL" default:"5m"`
	PendingAfter time.Duration `envconfig:"SMDATA_RECONCILER_PENDING_AFTER" default:"10m"`
	BatchSize    int           `envconfig:"SMDATA_RECONCILER_BATCH_SIZE" default:"100"`
	LockTTL      time.Duration `envconfig:"SMDATA_RECONCILER_LOCK_TTL" default:"4m"`
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
