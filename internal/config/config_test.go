package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	readings "renewable-monitor/internal/readings/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONITOR_CONFIG", "")
	t.Setenv("PROVIDER_BASE_URL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Capacity != 1000 || cfg.Storage.InitialLevel != 500 {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Thresholds[readings.SourceWind].High != 400 {
		t.Fatalf("unexpected thresholds %+v", cfg.Thresholds)
	}
	if cfg.Provider.Retries != 3 || cfg.Data.File != "energy_data.txt" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.yaml")
	content := `
provider:
  base_url: https://api.example.test
  timeout: 3s
  retries: 1
storage:
  capacity: 2000
  initial_level: 1500
  nominal:
    solar: 60
thresholds:
  solar:
    low: 10
    high: 20
alerts:
  low_fraction: 0.5
  mqtt:
    broker: tcp://broker:1883
data:
  file: plant.dat
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MONITOR_CONFIG", path)
	t.Setenv("PROVIDER_BASE_URL", "")
	t.Setenv("PROVIDER_RETRIES", "5")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.BaseURL != "https://api.example.test" || cfg.Provider.Timeout != 3*time.Second {
		t.Fatalf("unexpected provider %+v", cfg.Provider)
	}
	if cfg.Provider.Retries != 5 {
		t.Fatalf("expected env override of retries, got %d", cfg.Provider.Retries)
	}
	if cfg.Storage.Capacity != 2000 || cfg.Storage.InitialLevel != 1500 || cfg.Storage.ConsumptionRate != 50 {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Storage.Nominal[readings.SourceSolar] != 60 || cfg.Storage.Nominal[readings.SourceHydro] != 40 {
		t.Fatalf("expected nominal merge, got %+v", cfg.Storage.Nominal)
	}
	if cfg.Thresholds[readings.SourceSolar].High != 20 || cfg.Thresholds[readings.SourceHydro].Low != 200 {
		t.Fatalf("expected threshold merge, got %+v", cfg.Thresholds)
	}
	if cfg.Alerts.LowFraction != 0.5 || cfg.Alerts.MQTT.Broker != "tcp://broker:1883" || cfg.Alerts.MQTT.TopicPrefix != "renewable/alerts" {
		t.Fatalf("unexpected alerts %+v", cfg.Alerts)
	}
	if cfg.Data.File != "plant.dat" || cfg.Metrics.Addr != ":9100" {
		t.Fatalf("unexpected data/metrics %+v %+v", cfg.Data, cfg.Metrics)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Data.File = "plant.csv"
	cfg.Alerts.LowFraction = 1.5
	cfg.Thresholds[readings.Source("tidal")] = readings.Band{Low: 1, High: 2}
	cfg.Storage.InitialLevel = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
