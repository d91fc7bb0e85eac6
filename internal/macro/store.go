package macro

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS chat_messages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	message TEXT NOT NULL UNIQUE,
	added   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLStore keeps custom chat messages in a sqlite database.
type SQLStore struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the sqlite database at path.
func OpenStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// ":memory:" databases live per connection
	db.SetMaxOpenConns(1)
	return NewSQLStore(db)
}

// NewSQLStore wraps an open database and ensures the schema exists.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Messages() ([]string, error) {
	rows, err := s.db.Query("SELECT message FROM chat_messages ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// Add stores msg. Storing the same message twice is not an error.
func (s *SQLStore) Add(msg string) error {
	if _, err := s.db.Exec("INSERT OR IGNORE INTO chat_messages (message) VALUES (?)", msg); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
