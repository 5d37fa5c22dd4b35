package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qepting91/redditwatch/internal/domain"
)

// SavePost inserts a post if its reddit_id is new and reports whether a row
// was written. Re-saving an already-stored post is a no-op, so a given
// reddit_id appears at most once regardless of how many cycles observe it.
func (s *Store) SavePost(p domain.Post) (bool, error) {
	fetchedAt := p.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	res, err := s.db.Exec(`
		INSERT INTO posts (
			reddit_id, subreddit, title, selftext, author,
			score, upvote_ratio, num_comments, created_utc,
			url, permalink, is_self, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reddit_id) DO NOTHING
	`, p.RedditID, p.Subreddit, p.Title, p.Selftext, p.Author,
		p.Score, p.UpvoteRatio, p.NumComments, p.CreatedUTC,
		p.URL, p.Permalink, p.IsSelf, fetchedAt)
	if err != nil {
		return false, fmt.Errorf("inserting post %s: %w", p.RedditID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkRelevant records the relevance judgment for a stored post.
func (s *Store) MarkRelevant(redditID string, relevant bool, score float64, keywords []string) error {
	var keywordsJSON sql.NullString
	if len(keywords) > 0 {
		b, err := json.Marshal(keywords)
		if err != nil {
			return err
		}
		keywordsJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.Exec(`
		UPDATE posts
		SET is_relevant = ?, relevance_score = ?, keywords_found = ?
		WHERE reddit_id = ?
	`, relevant, score, keywordsJSON, redditID)
	if err != nil {
		return fmt.Errorf("marking post %s relevant: %w", redditID, err)
	}
	return nil
}

// PostFilter narrows ListPosts results. Zero values mean "no restriction"
// except Limit and MaxAgeDays, which default when unset.
type PostFilter struct {
	Subreddit  string
	Relevant   *bool
	MaxAgeDays int
	Limit      int
}

// ListPosts returns stored posts matching the filter, newest first.
func (s *Store) ListPosts(f PostFilter) ([]domain.Post, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.MaxAgeDays <= 0 {
		f.MaxAgeDays = 7
	}

	query := `
		SELECT reddit_id, subreddit, title, selftext, author,
			score, upvote_ratio, num_comments, created_utc,
			url, permalink, is_self, fetched_at,
			is_relevant, relevance_score, keywords_found
		FROM posts WHERE 1=1`
	var args []any

	if f.Subreddit != "" {
		query += " AND subreddit = ?"
		args = append(args, f.Subreddit)
	}
	if f.Relevant != nil {
		query += " AND is_relevant = ?"
		args = append(args, *f.Relevant)
	}

	cutoff := time.Now().AddDate(0, 0, -f.MaxAgeDays).Unix()
	query += " AND created_utc > ? ORDER BY created_utc DESC LIMIT ?"
	args = append(args, cutoff, f.Limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

// KeywordCounts aggregates how often each keyword matched across stored
// posts, for the dashboard.
func (s *Store) KeywordCounts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT keywords_found FROM posts WHERE keywords_found IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var keywords []string
		if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
			continue
		}
		for _, k := range keywords {
			counts[k]++
		}
	}
	return counts, rows.Err()
}

// SubredditCounts returns the number of stored posts per subreddit.
func (s *Store) SubredditCounts() ([]domain.SubredditCount, error) {
	rows, err := s.db.Query(`
		SELECT subreddit, COUNT(*) AS count FROM posts
		GROUP BY subreddit ORDER BY count DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.SubredditCount
	for rows.Next() {
		var c domain.SubredditCount
		if err := rows.Scan(&c.Subreddit, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Cleanup deletes posts created more than the given number of days ago and
// returns how many rows were removed.
func (s *Store) Cleanup(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	res, err := s.db.Exec(`DELETE FROM posts WHERE created_utc < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanPosts(rows *sql.Rows) ([]domain.Post, error) {
	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		var relevant sql.NullBool
		var score sql.NullFloat64
		var keywordsJSON sql.NullString

		err := rows.Scan(
			&p.RedditID, &p.Subreddit, &p.Title, &p.Selftext, &p.Author,
			&p.Score, &p.UpvoteRatio, &p.NumComments, &p.CreatedUTC,
			&p.URL, &p.Permalink, &p.IsSelf, &p.FetchedAt,
			&relevant, &score, &keywordsJSON,
		)
		if err != nil {
			return nil, err
		}

		if relevant.Valid {
			v := relevant.Bool
			p.Relevant = &v
		}
		if score.Valid {
			p.RelevanceScore = score.Float64
		}
		if keywordsJSON.Valid {
			json.Unmarshal([]byte(keywordsJSON.String), &p.KeywordsFound)
		}

		posts = append(posts, p)
	}
	return posts, rows.Err()
}
