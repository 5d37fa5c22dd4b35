// Package storage persists posts and the monitoring audit trail to a local
// SQLite database file.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store handles all database operations. Access is serialized through a
// single connection; SQLite handles locking on the file.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection keeps writers serialized and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reddit_id TEXT UNIQUE NOT NULL,
		subreddit TEXT NOT NULL,
		title TEXT NOT NULL,
		selftext TEXT,
		author TEXT,
		score INTEGER DEFAULT 0,
		upvote_ratio REAL DEFAULT 0.5,
		num_comments INTEGER DEFAULT 0,
		created_utc REAL NOT NULL,
		url TEXT,
		permalink TEXT,
		is_self BOOLEAN DEFAULT 1,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		is_relevant BOOLEAN DEFAULT NULL,
		relevance_score REAL DEFAULT NULL,
		keywords_found TEXT
	);

	CREATE TABLE IF NOT EXISTS fetch_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subreddit TEXT NOT NULL,
		posts_fetched INTEGER DEFAULT 0,
		posts_stored INTEGER DEFAULT 0,
		posts_relevant INTEGER DEFAULT 0,
		duration_seconds REAL DEFAULT 0,
		error TEXT,
		run_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_posts_reddit_id ON posts(reddit_id);
	CREATE INDEX IF NOT EXISTS idx_posts_subreddit ON posts(subreddit);
	CREATE INDEX IF NOT EXISTS idx_posts_is_relevant ON posts(is_relevant);
	CREATE INDEX IF NOT EXISTS idx_posts_created_utc ON posts(created_utc);
	`

	_, err := s.db.Exec(schema)
	return err
}
