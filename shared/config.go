package shared

import (
	"encoding/json"
	"github.com/go-playground/validator/v10"
	"github.com/tailscale/hujson"
	"log"
	"os"
	"time"
)

const (
	configVarName  = "CONFIG"                // If set, will load config.json from this path and not from devConfigPath
	secretsVarName = "SECRETS"               // If set, will load secrets.json from this path and not from devSecretsPath
	devConfigPath  = "dev/config.dev.jsonc"  // Path to config.json in development environment
	devSecretsPath = "dev/secrets.dev.jsonc" // Path to secrets.json in development environment
)

type Config struct {
	Secrets          Secrets         `json:"-"`
	LogFile          string          `json:"log_file"`
	LogLevel         string          `json:"log_level" validate:"omitempty,oneof=Debug Info Warn Error"`
	ProfileDir       string          `json:"profile_dir"`
	ProfileKeepDays  int             `json:"profile_keep_days" validate:"gte=0"`
	BlockedHostsFile string          `json:"blocked_hosts_file"`
	ServicePort      uint            `json:"service_port" validate:"required"`
	Host             string          `json:"host" validate:"required"`
	DbFile           string          `json:"db_file" validate:"required"`
	ServerActor      *ActorInfo      `json:"server_actor" validate:"required"`
	Delivery         DeliveryConfig  `json:"delivery"`
	Health           HealthConfig    `json:"health"`
	Follows          FollowsConfig   `json:"follows"`
	Reconcile        ReconcileConfig `json:"reconcile"`
	Inbox            InboxConfig     `json:"inbox"`
}

type ActorInfo struct {
	Name      string    `json:"name" validate:"required"`
	Published time.Time `json:"published"`
	PubKey    string    `json:"pub_key" validate:"required"`
	PrivKey   string    `json:"priv_key" validate:"required"`
}

type DeliveryConfig struct {
	PoolSize           int `json:"pool_size" validate:"gte=1"`
	BatchSize          int `json:"batch_size" validate:"gte=1"`
	RetryLimit         int `json:"retry_limit" validate:"gte=0"`
	BackoffBaseMsec    int `json:"backoff_base_msec" validate:"gte=1"`
	BackoffCapMsec     int `json:"backoff_cap_msec" validate:"gtefield=BackoffBaseMsec"`
	RequestTimeoutMsec int `json:"request_timeout_msec" validate:"gte=1"`
	LeaseTimeoutMsec   int `json:"lease_timeout_msec" validate:"gtfield=RequestTimeoutMsec"`
	IdleWakeMsec       int `json:"idle_wake_msec" validate:"gte=1"`
	ArchiveTtlHours    int `json:"archive_ttl_hours" validate:"gte=1"`
	BreakerFailures    int `json:"breaker_failures" validate:"gte=-1"`
	BreakerOpenSec     int `json:"breaker_open_sec" validate:"gte=1"`
}

type HealthConfig struct {
	PruneThreshold int `json:"prune_threshold" validate:"gte=1"`
}

type FollowsConfig struct {
	AutoAccept *bool `json:"auto_accept"`
}

type ReconcileConfig struct {
	StaleAfterMin      int `json:"stale_after_min" validate:"gte=0"`
	RequestTimeoutMsec int `json:"request_timeout_msec" validate:"gte=1"`
}

type InboxConfig struct {
	RatePerSec float64 `json:"rate_per_sec" validate:"gt=0"`
	Burst      int     `json:"burst" validate:"gte=1"`
}

type Secrets struct {
	PrivKeyPass string   `json:"privkey_passphrase"`
	ApiKeys     []string `json:"api_keys"`
	MetricsAuth string   `json:"metrics_auth"`
}

func LoadConfig() *Config {

	// Where are our config and secrets files?
	cfgPath := os.Getenv(configVarName)
	if len(cfgPath) == 0 {
		cfgPath = devConfigPath
	}
	secretsPath := os.Getenv(secretsVarName)
	if len(secretsPath) == 0 {
		secretsPath = devSecretsPath
	}

	// Read config file over the defaults, so keys that are present win, even if 0
	config := NewDefaultConfig()
	mustDeserializeFile(cfgPath, config)
	// Read secrets member from secrets file
	mustDeserializeFile(secretsPath, &config.Secrets)

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		log.Fatal(err)
	}
	return config
}

// NewDefaultConfig returns a config with every tunable at its documented default.
func NewDefaultConfig() *Config {
	autoAccept := true
	return &Config{
		LogLevel:        "Info",
		ProfileKeepDays: 3,
		Delivery: DeliveryConfig{
			PoolSize:           4,
			BatchSize:          4,
			RetryLimit:         5,
			BackoffBaseMsec:    1000,
			BackoffCapMsec:     3600 * 1000,
			RequestTimeoutMsec: 10 * 1000,
			LeaseTimeoutMsec:   60 * 1000,
			IdleWakeMsec:       5000,
			ArchiveTtlHours:    7 * 24,
			BreakerFailures:    20,
			BreakerOpenSec:     60,
		},
		Health:    HealthConfig{PruneThreshold: 5},
		Follows:   FollowsConfig{AutoAccept: &autoAccept},
		Reconcile: ReconcileConfig{StaleAfterMin: 60, RequestTimeoutMsec: 10 * 1000},
		Inbox:     InboxConfig{RatePerSec: 20, Burst: 40},
	}
}

// ApplyDefaults replaces zero values that are not valid settings with their defaults.
// retry_limit, stale_after_min and profile_keep_days accept 0, so they are left alone.
func (cfg *Config) ApplyDefaults() {
	def := NewDefaultConfig()
	d := &cfg.Delivery
	setDefault(&d.PoolSize, def.Delivery.PoolSize)
	setDefault(&d.BatchSize, def.Delivery.BatchSize)
	setDefault(&d.BackoffBaseMsec, def.Delivery.BackoffBaseMsec)
	setDefault(&d.BackoffCapMsec, def.Delivery.BackoffCapMsec)
	setDefault(&d.RequestTimeoutMsec, def.Delivery.RequestTimeoutMsec)
	setDefault(&d.LeaseTimeoutMsec, def.Delivery.LeaseTimeoutMsec)
	setDefault(&d.IdleWakeMsec, def.Delivery.IdleWakeMsec)
	setDefault(&d.ArchiveTtlHours, def.Delivery.ArchiveTtlHours)
	setDefault(&d.BreakerFailures, def.Delivery.BreakerFailures)
	setDefault(&d.BreakerOpenSec, def.Delivery.BreakerOpenSec)
	setDefault(&cfg.Health.PruneThreshold, def.Health.PruneThreshold)
	setDefault(&cfg.Reconcile.RequestTimeoutMsec, def.Reconcile.RequestTimeoutMsec)
	if cfg.Inbox.RatePerSec == 0 {
		cfg.Inbox.RatePerSec = def.Inbox.RatePerSec
	}
	setDefault(&cfg.Inbox.Burst, def.Inbox.Burst)
	if cfg.Follows.AutoAccept == nil {
		cfg.Follows.AutoAccept = def.Follows.AutoAccept
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
}

func (cfg *Config) Validate() error {
	return validator.New().Struct(cfg)
}

func (cfg *Config) AutoAcceptFollows() bool {
	return cfg.Follows.AutoAccept == nil || *cfg.Follows.AutoAccept
}

func setDefault(val *int, def int) {
	if *val == 0 {
		*val = def
	}
}

func mustDeserializeFile[T any](fileName string, obj *T) {
	var err error
	var cfgJson []byte
	cfgJson, err = os.ReadFile(fileName)
	if err != nil {
		log.Fatal(err)
	}
	if err = deserialize(cfgJson, obj); err != nil {
		log.Fatal(err)
	}
}

func deserialize[T any](cfgJson []byte, obj *T) error {
	var err error
	// JSONC => JSON
	cfgJson, err = standardizeJSON(cfgJson)
	if err != nil {
		return err
	}
	return json.Unmarshal(cfgJson, obj)
}

func standardizeJSON(b []byte) ([]byte, error) {
	ast, err := hujson.Parse(b)
	if err != nil {
		return b, err
	}
	ast.Standardize()
	return ast.Pack(), nil
}
