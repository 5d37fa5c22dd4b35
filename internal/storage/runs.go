package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/qepting91/redditwatch/internal/domain"
)

// LogRun appends one fetch log entry. The table is append-only; entries are
// never updated or deleted.
func (s *Store) LogRun(e domain.FetchLogEntry) error {
	runAt := e.RunAt
	if runAt.IsZero() {
		runAt = time.Now()
	}

	var errMsg sql.NullString
	if e.Error != "" {
		errMsg = sql.NullString{String: e.Error, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO fetch_log (
			subreddit, posts_fetched, posts_stored, posts_relevant,
			duration_seconds, error, run_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Subreddit, e.PostsFetched, e.PostsStored, e.PostsRelevant,
		e.Duration.Seconds(), errMsg, runAt)
	if err != nil {
		return fmt.Errorf("logging run for r/%s: %w", e.Subreddit, err)
	}
	return nil
}

// ListRuns returns the most recent fetch log entries, newest first.
func (s *Store) ListRuns(limit int) ([]domain.FetchLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, subreddit, posts_fetched, posts_stored, posts_relevant,
			duration_seconds, error, run_at
		FROM fetch_log ORDER BY run_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.FetchLogEntry
	for rows.Next() {
		var e domain.FetchLogEntry
		var seconds float64
		var errMsg sql.NullString

		err := rows.Scan(&e.ID, &e.Subreddit, &e.PostsFetched, &e.PostsStored,
			&e.PostsRelevant, &seconds, &errMsg, &e.RunAt)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(seconds * float64(time.Second))
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates database totals for the stats command and dashboard.
func (s *Store) Stats() (*domain.Stats, error) {
	stats := &domain.Stats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM posts`, &stats.TotalPosts},
		{`SELECT COUNT(*) FROM posts WHERE is_relevant = 1`, &stats.RelevantPosts},
		{`SELECT COUNT(DISTINCT subreddit) FROM posts`, &stats.UniqueSubreddits},
		{`SELECT COUNT(*) FROM fetch_log`, &stats.MonitoringRuns},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.Query(`
		SELECT subreddit, COUNT(*) AS count FROM posts
		GROUP BY subreddit ORDER BY count DESC LIMIT 5
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.SubredditCount
		if err := rows.Scan(&c.Subreddit, &c.Count); err != nil {
			return nil, err
		}
		stats.TopSubreddits = append(stats.TopSubreddits, c)
	}
	return stats, rows.Err()
}
