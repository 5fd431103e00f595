// Package history persists executed requests and their responses to a
// SQLite database. Saving is best-effort: a history failure never fails the
// request that produced it.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/reqly/internal/types"
)

// Manager wraps the history database.
type Manager struct {
	db *sql.DB
}

// NewManager opens (creating if needed) the history database at dbPath.
func NewManager(dbPath string) (*Manager, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	m := &Manager{db: db}
	if err := m.initSchema(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		headers TEXT NOT NULL,
		body TEXT,
		response_status INTEGER NOT NULL,
		response_headers TEXT NOT NULL,
		response_body TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_history_url ON history(url);
	`

	if _, err := m.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// Save records one executed request. resp may be nil when execErr is set.
func (m *Manager) Save(req *types.Request, resp *types.Response, execErr error, duration time.Duration) error {
	headersJSON, err := json.Marshal(req.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	status := 0
	responseBody := ""
	responseHeadersJSON := []byte("[]")
	if resp != nil {
		status = resp.Status
		responseBody = resp.Body
		responseHeadersJSON, err = json.Marshal(resp.Headers)
		if err != nil {
			return fmt.Errorf("failed to marshal response headers: %w", err)
		}
	}

	errText := ""
	if execErr != nil {
		errText = execErr.Error()
	}

	query := `
		INSERT INTO history (
			timestamp, method, url, headers, body,
			response_status, response_headers, response_body,
			duration_ms, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	timestampStr := time.Now().Local().Format("2006-01-02 15:04:05")

	_, err = m.db.Exec(query,
		timestampStr,
		req.Method,
		req.URL,
		string(headersJSON),
		req.Body,
		status,
		string(responseHeadersJSON),
		responseBody,
		duration.Milliseconds(),
		errText,
	)
	if err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (m *Manager) List(limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := m.db.Query(`
		SELECT id, timestamp, method, url, headers, body,
		       response_status, response_headers, response_body,
		       duration_ms, error
		FROM history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var e types.HistoryEntry
		var headersJSON, responseHeadersJSON string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Method, &e.URL,
			&headersJSON, &e.Body, &e.ResponseStatus, &responseHeadersJSON,
			&e.ResponseBody, &e.Duration, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if err := json.Unmarshal([]byte(headersJSON), &e.Headers); err != nil {
			e.Headers = nil
		}
		if err := json.Unmarshal([]byte(responseHeadersJSON), &e.ResponseHeaders); err != nil {
			e.ResponseHeaders = nil
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes all history entries.
func (m *Manager) Clear() error {
	if _, err := m.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.db.Close()
}
