package config

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func createTestDB(t *testing.T, statements []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("executing %q: %v", stmt, err)
		}
	}
	return path
}

var baseSchema = []string{
	`CREATE TABLE pipeline (
		intake_dir TEXT NOT NULL,
		sampling_rate REAL NOT NULL,
		channels INTEGER NOT NULL,
		poll_interval_ms INTEGER NOT NULL,
		snippet_deadline_ms INTEGER NOT NULL,
		telemetry TEXT NOT NULL
	)`,
	`CREATE TABLE models (
		filter_selector TEXT NOT NULL,
		action_classifier TEXT NOT NULL
	)`,
	`INSERT INTO pipeline VALUES ('/tmp/intake', 256, 5, 250, 5000, 'stdout')`,
	`INSERT INTO models VALUES ('selector.bin', 'classifier.bin')`,
}

func TestSQLiteProviderLoadConfig(t *testing.T) {
	path := createTestDB(t, baseSchema)
	provider, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.IntakeDir != "/tmp/intake" {
		t.Errorf("IntakeDir = %q", cfg.Pipeline.IntakeDir)
	}
	if cfg.Pipeline.SamplingRate != 256 || cfg.Pipeline.Channels != 5 {
		t.Errorf("rate/channels = %v/%d", cfg.Pipeline.SamplingRate, cfg.Pipeline.Channels)
	}
	if cfg.Pipeline.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.Pipeline.PollInterval)
	}
	if cfg.Pipeline.SnippetDeadline != 5*time.Second {
		t.Errorf("SnippetDeadline = %v, want 5s", cfg.Pipeline.SnippetDeadline)
	}
	if cfg.Models.FilterSelector != "selector.bin" || cfg.Models.ActionClassifier != "classifier.bin" {
		t.Errorf("models = %+v", cfg.Models)
	}
	if cfg.Actuator != nil || cfg.Status != nil {
		t.Error("optional sections should stay nil without their tables")
	}
}

func TestSQLiteProviderOptionalSections(t *testing.T) {
	statements := append(append([]string{}, baseSchema...),
		`CREATE TABLE actuator (serial_device TEXT NOT NULL, baud INTEGER NOT NULL)`,
		`INSERT INTO actuator VALUES ('/dev/ttyACM0', 9600)`,
		`CREATE TABLE status (listen_addr TEXT NOT NULL)`,
		`INSERT INTO status VALUES ('127.0.0.1:8090')`,
	)
	path := createTestDB(t, statements)
	provider, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Actuator == nil || cfg.Actuator.SerialDevice != "/dev/ttyACM0" || cfg.Actuator.Baud != 9600 {
		t.Errorf("actuator = %+v", cfg.Actuator)
	}
	if cfg.Status == nil || cfg.Status.ListenAddr != "127.0.0.1:8090" {
		t.Errorf("status = %+v", cfg.Status)
	}
}

func TestSQLiteProviderEmptyOptionalTables(t *testing.T) {
	statements := append(append([]string{}, baseSchema...),
		`CREATE TABLE actuator (serial_device TEXT NOT NULL, baud INTEGER NOT NULL)`,
	)
	path := createTestDB(t, statements)
	provider, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Actuator != nil {
		t.Errorf("row-less actuator table should leave the section nil, got %+v", cfg.Actuator)
	}
}

func TestSQLiteProviderMissingSchema(t *testing.T) {
	path := createTestDB(t, nil)
	provider, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Close()

	if _, err := provider.LoadConfig(); err == nil {
		t.Error("loading from an empty database should fail")
	}
}
