package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store names. Each store is an independent database with its own
// transactions; nothing joins across them.
const (
	StoreMain       = "main"
	StoreShipment   = "shipment"
	StoreFinance    = "finance"
	StoreAttachment = "attachment"
)

// Stores lists every store in migration order
var Stores = []string{StoreMain, StoreShipment, StoreFinance, StoreAttachment}

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Databases      map[string]DatabaseConfig
	Redis          RedisConfig
	Storage        StorageConfig
	Log            LogConfig
	HTTP           HTTPConfig
	Reconciliation ReconciliationConfig
	Numbering      NumberingConfig
	Telemetry      TelemetryConfig
	Profiling      ProfilingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path

	SlowQueryThreshold time.Duration
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings for one store
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig holds S3-compatible object storage settings for attachments
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
}

// ReconciliationConfig controls the background consistency sweep
type ReconciliationConfig struct {
	Enabled              bool
	Interval             time.Duration
	RunTimeout           time.Duration
	LeaseTTL             time.Duration
	TriggerAfterMutation bool
}

// NumberingConfig controls business code generation
type NumberingConfig struct {
	ShipmentPrefix            string
	ApplicationPrefix         string
	ShipmentCreateAttempts    int
	ApplicationCreateAttempts int
	RandomCodeMaxAttempts     int // 0 = unbounded
	Timezone                  string
}

// Location returns the timezone codes are partitioned in
func (n NumberingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(n.Timezone)
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	LogsEnabled       bool // Also export zap logs over OTLP
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string // e.g. http://pyroscope:4040
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string // empty uses cpu, alloc_space, inuse_space, goroutines
	SpanProfiles      bool     // link profiles to trace spans, needs telemetry.enabled
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with FREIGHT_ prefix (e.g., FREIGHT_DATABASE_FINANCE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("FREIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Databases: make(map[string]DatabaseConfig, len(Stores)),
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),

			SlowQueryThreshold: v.GetDuration("log.slow_query_threshold"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
		},
		Reconciliation: ReconciliationConfig{
			Enabled:              v.GetBool("reconciliation.enabled"),
			Interval:             v.GetDuration("reconciliation.interval"),
			RunTimeout:           v.GetDuration("reconciliation.run_timeout"),
			LeaseTTL:             v.GetDuration("reconciliation.lease_ttl"),
			TriggerAfterMutation: v.GetBool("reconciliation.trigger_after_mutation"),
		},
		Numbering: NumberingConfig{
			ShipmentPrefix:            v.GetString("numbering.shipment_prefix"),
			ApplicationPrefix:         v.GetString("numbering.application_prefix"),
			ShipmentCreateAttempts:    v.GetInt("numbering.shipment_create_attempts"),
			ApplicationCreateAttempts: v.GetInt("numbering.application_create_attempts"),
			RandomCodeMaxAttempts:     v.GetInt("numbering.random_code_max_attempts"),
			Timezone:                  v.GetString("numbering.timezone"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			ProfileTypes:      splitList(v.GetStringSlice("profiling.profile_types")),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
	}

	// Reconciliation is on unless explicitly disabled
	if !v.IsSet("reconciliation.enabled") {
		cfg.Reconciliation.Enabled = true
	}
	if !v.IsSet("reconciliation.trigger_after_mutation") {
		cfg.Reconciliation.TriggerAfterMutation = true
	}
	if !v.IsSet("profiling.span_profiles") {
		cfg.Profiling.SpanProfiles = true
	}

	for _, store := range Stores {
		cfg.Databases[store] = loadDatabase(v, "database."+store)
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDatabase(v *viper.Viper, key string) DatabaseConfig {
	return DatabaseConfig{
		Driver:          v.GetString(key + ".driver"),
		Host:            v.GetString(key + ".host"),
		Port:            v.GetInt(key + ".port"),
		User:            v.GetString(key + ".user"),
		Password:        v.GetString(key + ".password"),
		DBName:          v.GetString(key + ".dbname"),
		SSLMode:         v.GetString(key + ".sslmode"),
		Path:            v.GetString(key + ".path"),
		MaxOpenConns:    v.GetInt(key + ".max_open_conns"),
		MaxIdleConns:    v.GetInt(key + ".max_idle_conns"),
		ConnMaxLifetime: v.GetInt(key + ".conn_max_lifetime"),
		ConnMaxIdleTime: v.GetInt(key + ".conn_max_idle_time"),
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "freight-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	for store, db := range cfg.Databases {
		applyDatabaseDefaults(store, &db)
		cfg.Databases[store] = db
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "freight-attachments"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.SlowQueryThreshold == 0 {
		cfg.Log.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Reconciliation.Interval == 0 {
		cfg.Reconciliation.Interval = 10 * time.Minute
	}
	if cfg.Reconciliation.RunTimeout == 0 {
		cfg.Reconciliation.RunTimeout = 2 * time.Minute
	}
	if cfg.Reconciliation.LeaseTTL == 0 {
		cfg.Reconciliation.LeaseTTL = cfg.Reconciliation.RunTimeout
	}
	if cfg.Numbering.ShipmentPrefix == "" {
		cfg.Numbering.ShipmentPrefix = "Rsl-"
	}
	if cfg.Numbering.ApplicationPrefix == "" {
		cfg.Numbering.ApplicationPrefix = "F"
	}
	if cfg.Numbering.ShipmentCreateAttempts == 0 {
		cfg.Numbering.ShipmentCreateAttempts = 5
	}
	if cfg.Numbering.ApplicationCreateAttempts == 0 {
		cfg.Numbering.ApplicationCreateAttempts = 10
	}
	if cfg.Numbering.Timezone == "" {
		cfg.Numbering.Timezone = "Local"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.App.Name
	}
}

func applyDatabaseDefaults(store string, db *DatabaseConfig) {
	if db.Driver == "" {
		db.Driver = "postgres"
	}
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == 0 {
		db.Port = 5432
	}
	if db.User == "" {
		db.User = "postgres"
	}
	if db.DBName == "" {
		db.DBName = "freight_" + store
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.Path == "" {
		db.Path = "freight_" + store + ".db"
	}
	if db.MaxOpenConns == 0 {
		db.MaxOpenConns = 25
	}
	if db.MaxIdleConns == 0 {
		db.MaxIdleConns = 5
	}
	if db.ConnMaxLifetime == 0 {
		db.ConnMaxLifetime = 60
	}
	if db.ConnMaxIdleTime == 0 {
		db.ConnMaxIdleTime = 30
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	for _, store := range Stores {
		db := c.Databases[store]
		if db.Driver != "postgres" && db.Driver != "sqlite" {
			return fmt.Errorf("database.%s.driver must be postgres or sqlite, got %q", store, db.Driver)
		}
		if db.MaxOpenConns <= 0 {
			return fmt.Errorf("database.%s.max_open_conns must be positive", store)
		}
		if db.MaxIdleConns < 0 {
			return fmt.Errorf("database.%s.max_idle_conns cannot be negative", store)
		}
		if db.MaxIdleConns > db.MaxOpenConns {
			return fmt.Errorf("database.%s.max_idle_conns (%d) cannot exceed database.%s.max_open_conns (%d)",
				store, db.MaxIdleConns, store, db.MaxOpenConns)
		}
		if c.App.Env == "production" {
			if db.Driver != "postgres" {
				return fmt.Errorf("database.%s.driver must be postgres in production", store)
			}
			if db.Password == "" {
				return fmt.Errorf("database.%s.password is required in production", store)
			}
			if db.SSLMode == "disable" {
				return fmt.Errorf("database.%s.sslmode cannot be 'disable' in production", store)
			}
		}
	}

	if c.Numbering.ShipmentCreateAttempts < 1 || c.Numbering.ApplicationCreateAttempts < 1 {
		return fmt.Errorf("numbering create attempts must be at least 1")
	}
	if c.Numbering.RandomCodeMaxAttempts < 0 {
		return fmt.Errorf("numbering.random_code_max_attempts cannot be negative")
	}
	if c.Numbering.ShipmentPrefix == c.Numbering.ApplicationPrefix {
		return fmt.Errorf("numbering prefixes must differ")
	}
	if _, err := c.Numbering.Location(); err != nil {
		return fmt.Errorf("numbering.timezone: %w", err)
	}

	if c.Reconciliation.Interval < time.Second {
		return fmt.Errorf("reconciliation.interval must be at least 1s, got %s", c.Reconciliation.Interval)
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}

	return nil
}

// Database returns the configuration of one store
func (c *Config) Database(store string) DatabaseConfig {
	return c.Databases[store]
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// splitList accepts both TOML arrays and comma separated env values
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
