package config

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database
// configuration. The schema mirrors the YAML sections: single-row
// tables `pipeline` and `models`, plus optional single-row tables
// `actuator` and `status`.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	var pollMS, deadlineMS int64
	err := s.db.QueryRow(
		`SELECT intake_dir, sampling_rate, channels, poll_interval_ms, snippet_deadline_ms, telemetry FROM pipeline LIMIT 1`,
	).Scan(
		&config.Pipeline.IntakeDir,
		&config.Pipeline.SamplingRate,
		&config.Pipeline.Channels,
		&pollMS,
		&deadlineMS,
		&config.Pipeline.Telemetry,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}
	config.Pipeline.PollInterval = time.Duration(pollMS) * time.Millisecond
	config.Pipeline.SnippetDeadline = time.Duration(deadlineMS) * time.Millisecond

	err = s.db.QueryRow(
		`SELECT filter_selector, action_classifier FROM models LIMIT 1`,
	).Scan(&config.Models.FilterSelector, &config.Models.ActionClassifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load models config: %w", err)
	}

	if s.tableExists("actuator") {
		actuator := &ActuatorData{}
		err = s.db.QueryRow(`SELECT serial_device, baud FROM actuator LIMIT 1`).Scan(&actuator.SerialDevice, &actuator.Baud)
		switch err {
		case nil:
			config.Actuator = actuator
		case sql.ErrNoRows:
		default:
			return nil, fmt.Errorf("failed to load actuator config: %w", err)
		}
	}

	if s.tableExists("status") {
		status := &StatusData{}
		err = s.db.QueryRow(`SELECT listen_addr FROM status LIMIT 1`).Scan(&status.ListenAddr)
		switch err {
		case nil:
			config.Status = status
		case sql.ErrNoRows:
		default:
			return nil, fmt.Errorf("failed to load status config: %w", err)
		}
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", s.dbPath, err)
	}
	return config, nil
}

func (s *SQLiteProvider) tableExists(name string) bool {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	return err == nil && n > 0
}
