package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"renewable-monitor/internal/analytics/domain/temporal"
	readings "renewable-monitor/internal/readings/domain"
	"renewable-monitor/internal/readings/infrastructure/flatfile"
	storage "renewable-monitor/internal/storage/domain"
)

// ProviderConfig configures the production data API.
type ProviderConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	SigningSecret string        `yaml:"signing_secret"`
	Issuer        string        `yaml:"issuer"`
	Timeout       time.Duration `yaml:"timeout"`
	Retries       int           `yaml:"retries"`
	Backoff       time.Duration `yaml:"backoff"`
	PageSize      int           `yaml:"page_size"`
	MaxPages      int           `yaml:"max_pages"`
}

// StorageConfig holds the reservoir model and the starting level.
type StorageConfig struct {
	storage.Model `yaml:",inline"`
	InitialLevel  float64 `yaml:"initial_level"`
}

// MQTTConfig configures alert publishing.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// AlertsConfig configures detection and delivery.
type AlertsConfig struct {
	LowFraction  float64       `yaml:"low_fraction"`
	Template     string        `yaml:"template"`
	DedupeWindow time.Duration `yaml:"dedupe_window"`
	MQTT         MQTTConfig    `yaml:"mqtt"`
}

// DataConfig locates the flat-file store and export directory.
type DataConfig struct {
	File      string `yaml:"file"`
	ReportDir string `yaml:"report_dir"`
}

// DatabaseConfig enables Postgres snapshots when DSN is set.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// CalendarConfig selects the time zone for time filters.
type CalendarConfig struct {
	Location string `yaml:"location"`
}

// Config is the full application configuration.
type Config struct {
	Provider   ProviderConfig      `yaml:"provider"`
	Storage    StorageConfig       `yaml:"storage"`
	Thresholds readings.Thresholds `yaml:"thresholds"`
	Alerts     AlertsConfig        `yaml:"alerts"`
	Data       DataConfig          `yaml:"data"`
	Database   DatabaseConfig      `yaml:"database"`
	Metrics    MetricsConfig       `yaml:"metrics"`
	Calendar   CalendarConfig      `yaml:"calendar"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider: ProviderConfig{
			Issuer:   "renewable-monitor",
			Timeout:  10 * time.Second,
			Retries:  3,
			Backoff:  500 * time.Millisecond,
			PageSize: 500,
			MaxPages: 50,
		},
		Storage: StorageConfig{
			Model:        storage.DefaultModel(),
			InitialLevel: storage.DefaultCapacity / 2,
		},
		Thresholds: readings.DefaultThresholds(),
		Alerts: AlertsConfig{
			LowFraction: 0.75,
			MQTT: MQTTConfig{
				ClientID:    "renewable-monitor",
				TopicPrefix: "renewable/alerts",
			},
		},
		Data: DataConfig{
			File:      "energy_data.txt",
			ReportDir: "reports",
		},
		Calendar: CalendarConfig{Location: "Local"},
	}
}

// Load reads .env, then the YAML file named by MONITOR_CONFIG, then applies
// environment overrides. Sections missing from the file keep their defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("MONITOR_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	cfg.Provider.BaseURL = getenvDefault("PROVIDER_BASE_URL", cfg.Provider.BaseURL)
	cfg.Provider.APIKey = getenvDefault("PROVIDER_API_KEY", cfg.Provider.APIKey)
	cfg.Provider.SigningSecret = getenvDefault("PROVIDER_SIGNING_SECRET", cfg.Provider.SigningSecret)
	cfg.Provider.Timeout = getenvDuration("PROVIDER_TIMEOUT", cfg.Provider.Timeout)
	cfg.Provider.Retries = getenvIntDefault("PROVIDER_RETRIES", cfg.Provider.Retries)
	cfg.Provider.Backoff = getenvDuration("PROVIDER_BACKOFF", cfg.Provider.Backoff)

	cfg.Storage.Capacity = getenvFloatDefault("STORAGE_CAPACITY", cfg.Storage.Capacity)
	cfg.Storage.ConsumptionRate = getenvFloatDefault("STORAGE_CONSUMPTION_RATE", cfg.Storage.ConsumptionRate)
	cfg.Storage.InitialLevel = getenvFloatDefault("STORAGE_INITIAL_LEVEL", cfg.Storage.InitialLevel)

	cfg.Alerts.LowFraction = getenvFloatDefault("ALERT_LOW_FRACTION", cfg.Alerts.LowFraction)
	cfg.Alerts.Template = getenvDefault("ALERT_NOTIFY_TEMPLATE", cfg.Alerts.Template)
	cfg.Alerts.DedupeWindow = getenvDuration("ALERT_NOTIFY_DEDUP_WINDOW", cfg.Alerts.DedupeWindow)
	cfg.Alerts.MQTT.Broker = getenvDefault("MQTT_BROKER", cfg.Alerts.MQTT.Broker)
	cfg.Alerts.MQTT.ClientID = getenvDefault("MQTT_CLIENT_ID", cfg.Alerts.MQTT.ClientID)
	cfg.Alerts.MQTT.Username = getenvDefault("MQTT_USERNAME", cfg.Alerts.MQTT.Username)
	cfg.Alerts.MQTT.Password = getenvDefault("MQTT_PASSWORD", cfg.Alerts.MQTT.Password)
	cfg.Alerts.MQTT.TopicPrefix = getenvDefault("MQTT_TOPIC_PREFIX", cfg.Alerts.MQTT.TopicPrefix)

	cfg.Data.File = getenvDefault("DATA_FILE", cfg.Data.File)
	cfg.Data.ReportDir = getenvDefault("REPORT_DIR", cfg.Data.ReportDir)
	cfg.Database.DSN = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.Database.DSN))
	cfg.Metrics.Addr = getenvDefault("METRICS_ADDR", cfg.Metrics.Addr)
	cfg.Calendar.Location = getenvDefault("CALENDAR_TZ", cfg.Calendar.Location)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if err := c.Storage.Model.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Storage.InitialLevel < 0 || c.Storage.InitialLevel > c.Storage.Capacity {
		errs = append(errs, errors.New("config: storage initial level outside [0, capacity]"))
	}
	for source, band := range c.Thresholds {
		if !source.IsValid() {
			errs = append(errs, fmt.Errorf("config: thresholds: %w: %q", readings.ErrUnknownSource, source))
			continue
		}
		if band.Low > band.High {
			errs = append(errs, fmt.Errorf("config: thresholds for %s: low above high", source))
		}
	}
	if c.Alerts.LowFraction <= 0 || c.Alerts.LowFraction > 1 {
		errs = append(errs, errors.New("config: alerts low fraction must be in (0, 1]"))
	}
	if c.Provider.Retries < 0 {
		errs = append(errs, errors.New("config: provider retries must be non-negative"))
	}
	if c.Data.File != "" {
		if err := flatfile.CheckPath(c.Data.File); err != nil {
			errs = append(errs, fmt.Errorf("config: data file: %w", err))
		}
	}
	if _, err := temporal.NewCalendar(c.Calendar.Location); err != nil {
		errs = append(errs, fmt.Errorf("config: calendar: %w", err))
	}
	return errors.Join(errs...)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
