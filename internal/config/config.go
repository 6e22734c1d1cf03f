package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // scheduler timezones on minimal images

	"gopkg.in/yaml.v3"
)

// Feed storage backends
const (
	FeedBackendDatabase = "database"
	FeedBackendRedis    = "redis"
)

// Config holds all service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logger    LoggerConfig    `yaml:"logger"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	S3        S3Config        `yaml:"s3"`
	Feed      FeedConfig      `yaml:"feed"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sync      SyncConfig      `yaml:"sync"`
	Audit     AuditConfig     `yaml:"audit"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"`
	BasePath        string        `yaml:"base_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AdminTimeout bounds manual cleanup endpoints
	AdminTimeout   time.Duration `yaml:"admin_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // postgres | sqlite
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// GetDSN returns the connection string for the configured driver
func (d DatabaseConfig) GetDSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == "sqlite" {
		if d.Name == "" {
			return "inout.db"
		}
		return d.Name
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a redis endpoint was configured
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	// PresignTTL is the lifetime of photo URLs handed to display clients
	PresignTTL time.Duration `yaml:"presign_ttl"`
	// Public buckets are served with plain object URLs
	Public bool `yaml:"public"`
}

// FeedConfig is the single retention policy for the activity feed.
// Entry TTL equals RetentionHours; the weekly sweep removes entries older
// than WeeklySweepAge().
type FeedConfig struct {
	Backend        string `yaml:"backend"`
	RetentionHours int    `yaml:"retention_hours"`
	RedisKey       string `yaml:"redis_key"`
}

// Retention returns the feed entry TTL
func (f FeedConfig) Retention() time.Duration {
	return time.Duration(f.RetentionHours) * time.Hour
}

// WeeklySweepAge returns the age bound used by the weekly sweep
func (f FeedConfig) WeeklySweepAge() time.Duration {
	return 7 * f.Retention()
}

type SchedulerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Timezone     string        `yaml:"timezone"`
	DailySpec    string        `yaml:"daily_spec"`
	WeeklySpec   string        `yaml:"weekly_spec"`
	TTLSweepSpec string        `yaml:"ttl_sweep_spec"`
	AuditSpec    string        `yaml:"audit_spec"`
	JobTimeout   time.Duration `yaml:"job_timeout"`
}

type SyncConfig struct {
	Channel      string        `yaml:"channel"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type AuditConfig struct {
	// RetentionDays of 0 keeps audit history forever
	RetentionDays int `yaml:"retention_days"`
}

// Default returns the configuration used when no file or env overrides exist
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Mode:            "debug",
			BasePath:        "/api",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AdminTimeout:    20 * time.Second,
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
			},
		},
		Logger: LoggerConfig{Level: "info"},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "inout",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Port: 6379,
		},
		S3: S3Config{
			PresignTTL: 15 * time.Minute,
		},
		Feed: FeedConfig{
			Backend:        FeedBackendDatabase,
			RetentionHours: 24,
			RedisKey:       "inout:activities",
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			Timezone:     "Asia/Kolkata",
			DailySpec:    "0 0 * * *",
			WeeklySpec:   "0 2 * * 0",
			TTLSweepSpec: "@every 15m",
			AuditSpec:    "0 3 * * *",
			JobTimeout:   30 * time.Second,
		},
		Sync: SyncConfig{
			Channel:      "inout:sync",
			PollInterval: 5 * time.Second,
		},
	}
}

// Load reads the yaml file at path (if it exists) over the defaults and
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.Server.Mode = mode
	}
	if env := os.Getenv("ENV"); env == "production" {
		cfg.Server.Mode = "release"
	}
	if basePath := os.Getenv("SERVER_BASE_PATH"); basePath != "" {
		cfg.Server.BasePath = basePath
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		cfg.Redis.Host = redisHost
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		if p, err := strconv.Atoi(redisPort); err == nil {
			cfg.Redis.Port = p
		}
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		cfg.S3.Bucket = bucket
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		cfg.S3.Region = region
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		cfg.S3.Endpoint = endpoint
	}
	if accessKey := os.Getenv("S3_ACCESS_KEY"); accessKey != "" {
		cfg.S3.AccessKey = accessKey
	}
	if secretKey := os.Getenv("S3_SECRET_KEY"); secretKey != "" {
		cfg.S3.SecretKey = secretKey
	}
	if public := os.Getenv("S3_PUBLIC"); public != "" {
		if b, err := strconv.ParseBool(public); err == nil {
			cfg.S3.Public = b
		}
	}
	if backend := os.Getenv("FEED_BACKEND"); backend != "" {
		cfg.Feed.Backend = backend
	}
	if hours := os.Getenv("FEED_RETENTION_HOURS"); hours != "" {
		if h, err := strconv.Atoi(hours); err == nil {
			cfg.Feed.RetentionHours = h
		}
	}
	if tz := os.Getenv("SCHEDULER_TIMEZONE"); tz != "" {
		cfg.Scheduler.Timezone = tz
	}
	if enabled := os.Getenv("SCHEDULER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			cfg.Scheduler.Enabled = b
		}
	}
	if days := os.Getenv("AUDIT_RETENTION_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			cfg.Audit.RetentionDays = d
		}
	}
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.Feed.Backend {
	case FeedBackendDatabase:
	case FeedBackendRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("feed backend %q requires redis configuration", c.Feed.Backend)
		}
	default:
		return fmt.Errorf("unknown feed backend %q", c.Feed.Backend)
	}
	if c.Feed.RetentionHours <= 0 {
		return fmt.Errorf("feed.retention_hours must be positive, got %d", c.Feed.RetentionHours)
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit.retention_days must not be negative, got %d", c.Audit.RetentionDays)
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid scheduler timezone %q: %w", c.Scheduler.Timezone, err)
	}
	return nil
}
