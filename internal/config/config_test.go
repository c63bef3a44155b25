package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "primer.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `source:
  driver: sqlite
  dsn: ./data.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Memory.HistoryCapacity != 10 {
		t.Errorf("HistoryCapacity = %d, want default 10", cfg.Memory.HistoryCapacity)
	}
	if cfg.Memory.ErrorCapacity != 5 {
		t.Errorf("ErrorCapacity = %d, want default 5", cfg.Memory.ErrorCapacity)
	}
	if cfg.Assembly.SampleRows != 3 {
		t.Errorf("SampleRows = %d, want default 3", cfg.Assembly.SampleRows)
	}
	if cfg.MCP.Transport != "stdio" {
		t.Errorf("Transport = %q, want stdio", cfg.MCP.Transport)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_PRIMER_DSN", "postgres://app:secret@db:5432/prod")
	path := writeConfig(t, `source:
  driver: postgres
  dsn: ${TEST_PRIMER_DSN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.DSN != "postgres://app:secret@db:5432/prod" {
		t.Errorf("DSN = %q, env not expanded", cfg.Source.DSN)
	}
}

func TestLoadParsesFullConfig(t *testing.T) {
	path := writeConfig(t, `source:
  driver: snowflake
  dsn: user@account/db
  schema: ANALYTICS
  private_key_path: /keys/rsa.pem
memory:
  history_capacity: 20
  error_capacity: 8
  persist: true
  data_dir: /var/lib/primer
assembly:
  sample_rows: 5
  example_limit: 3
  section_timeout: 10s
  business_rules: "Fiscal year starts in February."
  triggers:
    statistics: [mean, median]
examples:
  file: examples.yaml
  entries:
    - question: "total revenue"
      sql: "SELECT SUM(amount) FROM orders"
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Source.Schema != "ANALYTICS" || cfg.Source.PrivateKeyPath != "/keys/rsa.pem" {
		t.Errorf("source = %+v", cfg.Source)
	}
	if !cfg.Memory.Persist || cfg.Memory.HistoryCapacity != 20 {
		t.Errorf("memory = %+v", cfg.Memory)
	}
	if cfg.Assembly.BusinessRules != "Fiscal year starts in February." {
		t.Errorf("BusinessRules = %q", cfg.Assembly.BusinessRules)
	}
	if got := cfg.Assembly.Triggers["statistics"]; len(got) != 2 || got[0] != "mean" {
		t.Errorf("Triggers[statistics] = %v", got)
	}
	if len(cfg.Examples.Entries) != 1 || cfg.Examples.File != "examples.yaml" {
		t.Errorf("examples = %+v", cfg.Examples)
	}

	timeout, err := cfg.SectionTimeout()
	if err != nil || timeout != 10*time.Second {
		t.Errorf("SectionTimeout() = %v, %v", timeout, err)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing driver", "source:\n  dsn: ./x.db\n  driver: \"\"\n"},
		{"zero history capacity", "source:\n  driver: sqlite\nmemory:\n  history_capacity: 0\n"},
		{"zero sample rows", "source:\n  driver: sqlite\nassembly:\n  sample_rows: 0\n"},
		{"bad timeout", "source:\n  driver: sqlite\nassembly:\n  section_timeout: soon\n"},
		{"bad lifetime", "source:\n  driver: sqlite\n  pool:\n    conn_max_lifetime: forever\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Errorf("Load() accepted invalid config:\n%s", tt.content)
			}
		})
	}
}

func TestSectionTimeoutEmptyMeansUnbounded(t *testing.T) {
	cfg := Default()
	cfg.Assembly.SectionTimeout = ""

	d, err := cfg.SectionTimeout()
	if err != nil || d != 0 {
		t.Errorf("SectionTimeout() = %v, %v, want 0, nil", d, err)
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "primer.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of written default failed: %v", err)
	}
	if cfg.Source.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Source.Driver)
	}
}
