package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var allEnvVars = []string{
	"COMMS_URL", "SERVICE_NAME", "NAMESPACE", "NATS_CLIENT_URL",
	"ADVANCE_SUBJECT", "INSPECT_SUBJECT", "OUTPUTS_SUBJECT",
	"REQUEST_TIMEOUT", "QUEUE_SIZE",
	"MANIFEST_FILE", "DAPP_ADDRESS", "ETHER_PORTAL", "ERC20_PORTAL", "ERC721_PORTAL",
	"DATABASE_URL", "RUN_MIGRATIONS", "MIGRATION_PATH",
	"HTTP_ADDR", "HTTP_PORT", "HEALTH_CHECK_TIMEOUT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range allEnvVars {
		if prev, ok := os.LookupEnv(env); ok {
			t.Cleanup(func() { os.Setenv(env, prev) })
		}
		os.Unsetenv(env)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.COMMSURL != "nats://127.0.0.1:4222" {
		t.Errorf("config:config_test - COMMSURL = %q, want %q", cfg.COMMSURL, "nats://127.0.0.1:4222")
	}
	if cfg.COMMSName != "wallet-dapp" {
		t.Errorf("config:config_test - COMMSName = %q, want %q", cfg.COMMSName, "wallet-dapp")
	}
	if cfg.AdvanceSubject != "" || cfg.InspectSubject != "" || cfg.OutputsSubject != "" {
		t.Errorf("config:config_test - expected empty subject overrides, got %q %q %q",
			cfg.AdvanceSubject, cfg.InspectSubject, cfg.OutputsSubject)
	}
	if cfg.RequestTimeout != 25*time.Second {
		t.Errorf("config:config_test - RequestTimeout = %v, want 25s", cfg.RequestTimeout)
	}
	if cfg.QueueSize != 256 {
		t.Errorf("config:config_test - QueueSize = %d, want 256", cfg.QueueSize)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("config:config_test - DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.RunMigrations {
		t.Error("config:config_test - expected RunMigrations=false by default")
	}
	if cfg.MigrationPath != "" {
		t.Errorf("config:config_test - MigrationPath = %q, want empty (embedded)", cfg.MigrationPath)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("config:config_test - HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.HealthCheckTimeout != 5*time.Second {
		t.Errorf("config:config_test - HealthCheckTimeout = %v, want 5s", cfg.HealthCheckTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("config:config_test - LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Errorf("config:config_test - defaults should be servable: %v", err)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	overrides := map[string]string{
		"COMMS_URL":            "nats://custom:4222",
		"SERVICE_NAME":         "test-dapp",
		"NAMESPACE":            "staging",
		"ADVANCE_SUBJECT":      "custom.advance",
		"INSPECT_SUBJECT":      "custom.inspect",
		"OUTPUTS_SUBJECT":      "custom.outputs",
		"REQUEST_TIMEOUT":      "10s",
		"QUEUE_SIZE":           "8",
		"MANIFEST_FILE":        "/tmp/manifest.yaml",
		"DAPP_ADDRESS":         "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		"DATABASE_URL":         "postgres://test@localhost/test",
		"RUN_MIGRATIONS":       "true",
		"MIGRATION_PATH":       "/tmp/migrations",
		"HTTP_PORT":            "9090",
		"HEALTH_CHECK_TIMEOUT": "10s",
		"LOG_LEVEL":            "debug",
	}
	for key, val := range overrides {
		t.Setenv(key, val)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"COMMSURL", cfg.COMMSURL, "nats://custom:4222"},
		{"COMMSName", cfg.COMMSName, "test-dapp"},
		{"Namespace", cfg.Namespace, "staging"},
		{"AdvanceSubject", cfg.AdvanceSubject, "custom.advance"},
		{"InspectSubject", cfg.InspectSubject, "custom.inspect"},
		{"OutputsSubject", cfg.OutputsSubject, "custom.outputs"},
		{"RequestTimeout", cfg.RequestTimeout, 10 * time.Second},
		{"QueueSize", cfg.QueueSize, 8},
		{"ManifestFile", cfg.ManifestFile, "/tmp/manifest.yaml"},
		{"DAppAddress", cfg.DAppAddress, "0x5FbDB2315678afecb367f032d93F642f64180aa3"},
		{"DatabaseURL", cfg.DatabaseURL, "postgres://test@localhost/test"},
		{"RunMigrations", cfg.RunMigrations, true},
		{"MigrationPath", cfg.MigrationPath, "/tmp/migrations"},
		{"HTTPPort", cfg.HTTPPort, 9090},
		{"HealthCheckTimeout", cfg.HealthCheckTimeout, 10 * time.Second},
		{"LogLevel", cfg.LogLevel, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("config:config_test - %s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUEUE_SIZE", "lots")

	if _, err := LoadConfig(); err == nil {
		t.Error("config:config_test - expected error for non-numeric QUEUE_SIZE")
	}
}

func TestValidateForServe(t *testing.T) {
	valid := func() *Config {
		return &Config{RequestTimeout: time.Second, HealthCheckTimeout: time.Second, QueueSize: 1}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"valid lowercase portal", func(c *Config) { c.EtherPortal = "0xffdbe43d4c855bf7e0f105c400a50857f53ab044" }, ""},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
		{"zero health timeout", func(c *Config) { c.HealthCheckTimeout = 0 }, "HEALTH_CHECK_TIMEOUT"},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, "QUEUE_SIZE"},
		{"bad dapp address", func(c *Config) { c.DAppAddress = "0x1234" }, "DAPP_ADDRESS"},
		{"bad checksum", func(c *Config) { c.ERC20Portal = "0x5fbDB2315678afecb367f032d93F642f64180aa3" }, "ERC20_PORTAL"},
		{"missing prefix", func(c *Config) { c.ERC721Portal = "5FbDB2315678afecb367f032d93F642f64180aa3" }, "ERC721_PORTAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.ValidateForServe()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("config:config_test - unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("config:config_test - error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForDB(t *testing.T) {
	if err := (&Config{}).ValidateForDB(); err == nil {
		t.Error("config:config_test - expected error without DATABASE_URL")
	}
	if err := (&Config{DatabaseURL: "postgres://x"}).ValidateForDB(); err != nil {
		t.Errorf("config:config_test - unexpected error: %v", err)
	}
}

func TestLoadConfig_LogLevels(t *testing.T) {
	clearEnv(t)
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Setenv("LOG_LEVEL", level)
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("config:config_test - unexpected error for level %q: %v", level, err)
		}
		if cfg.LogLevel != level {
			t.Errorf("config:config_test - LogLevel = %q, want %q", cfg.LogLevel, level)
		}
	}
}
