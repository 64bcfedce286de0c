package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port               string   `mapstructure:"port"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
	MaxBodyMB          int      `mapstructure:"max_body_mb"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// StorageConfig controls where submitted sessions are written.
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	ServeFiles bool   `mapstructure:"serve_files"`
}

// SupabaseConfig holds the cloud storage bucket settings.
type SupabaseConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	ServiceKey    string        `mapstructure:"service_key"`
	Bucket        string        `mapstructure:"bucket"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// AnalysisConfig holds gaze analysis settings.
type AnalysisConfig struct {
	DefaultViewportWidth float64 `mapstructure:"default_viewport_width"`
	TextsFile            string  `mapstructure:"texts_file"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "10000")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_minute", 30)
	v.SetDefault("server.max_body_mb", 5)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "experiment-db")
	v.SetDefault("database.sslmode", "disable")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Storage defaults
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.serve_files", false)

	// Supabase defaults
	v.SetDefault("supabase.enabled", false)
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_key", "")
	v.SetDefault("supabase.bucket", "dados-experimento")
	v.SetDefault("supabase.retry_interval", time.Minute)

	// Analysis defaults
	v.SetDefault("analysis.default_viewport_width", 1280.0)
	v.SetDefault("analysis.texts_file", "texts/example_texts.json")
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Analysis.DefaultViewportWidth <= 0 {
		errs = append(errs, errors.New("analysis.default_viewport_width must be greater than zero"))
	}
	if c.Storage.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir must be set"))
	}
	if c.Supabase.Enabled && (c.Supabase.URL == "" || c.Supabase.ServiceKey == "") {
		errs = append(errs, errors.New("supabase.url and supabase.service_key are required when supabase is enabled"))
	}
	if c.Supabase.RetryInterval <= 0 {
		errs = append(errs, errors.New("supabase.retry_interval must be positive"))
	}
	return errors.Join(errs...)
}

// Loader reads the configuration and keeps it current when the file changes.
type Loader struct {
	v     *viper.Viper
	mu    sync.RWMutex
	cfg   *Config
	hooks []func(*Config)
}

// Load reads config/config.yaml under projectRoot, environment variables
// (e.g. EXPERIMENT_SERVER_PORT) and defaults, in that order of precedence
// from last to first.
func Load(projectRoot string) (*Loader, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("EXPERIMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Loader{v: v, cfg: cfg}, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Current returns the active configuration. Callers must not modify it.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Watch reloads the configuration whenever the file changes. A file that no
// longer decodes or validates is logged and the previous config stays active.
func (l *Loader) Watch(log *zap.Logger) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		l.reload(log)
	})
	l.v.WatchConfig()
}

func (l *Loader) reload(log *zap.Logger) {
	cfg, err := decode(l.v)
	if err != nil {
		log.Error("Error reloading configuration", zap.Error(err))
		return
	}
	l.mu.Lock()
	l.cfg = cfg
	hooks := append([]func(*Config){}, l.hooks...)
	l.mu.Unlock()

	for _, fn := range hooks {
		fn(cfg)
	}
}

// OnReload registers fn to run after every successful reload.
func (l *Loader) OnReload(fn func(*Config)) {
	l.mu.Lock()
	l.hooks = append(l.hooks, fn)
	l.mu.Unlock()
}
