package domain

import (
	"context"
	"time"
)

// Sort orders accepted by collectors.
const (
	SortNew    = "new"
	SortHot    = "hot"
	SortTop    = "top"
	SortRising = "rising"
)

// ValidSort reports whether s is a supported listing sort order.
func ValidSort(s string) bool {
	switch s {
	case SortNew, SortHot, SortTop, SortRising:
		return true
	}
	return false
}

// Post is the clean data structure for storage. Posts are immutable once
// fetched and uniquely keyed by RedditID.
type Post struct {
	RedditID       string    `json:"reddit_id"`
	Subreddit      string    `json:"subreddit"`
	Title          string    `json:"title"`
	Selftext       string    `json:"selftext,omitempty"`
	Author         string    `json:"author"`
	Score          int       `json:"score"`
	UpvoteRatio    float64   `json:"upvote_ratio"`
	NumComments    int       `json:"num_comments"`
	CreatedUTC     float64   `json:"created_utc"`
	URL            string    `json:"url"`
	Permalink      string    `json:"permalink"`
	IsSelf         bool      `json:"is_self"`
	FetchedAt      time.Time `json:"fetched_at"`
	Relevant       *bool     `json:"is_relevant,omitempty"`
	RelevanceScore float64   `json:"relevance_score,omitempty"`
	KeywordsFound  []string  `json:"keywords_found,omitempty"`
}

// Created returns the post creation time.
func (p Post) Created() time.Time {
	return time.Unix(int64(p.CreatedUTC), 0)
}

// FetchLogEntry is one row of the append-only monitoring audit trail,
// written once per subreddit per cycle.
type FetchLogEntry struct {
	ID            int64         `json:"id"`
	Subreddit     string        `json:"subreddit"`
	PostsFetched  int           `json:"posts_fetched"`
	PostsStored   int           `json:"posts_stored"`
	PostsRelevant int           `json:"posts_relevant"`
	Duration      time.Duration `json:"duration"`
	Error         string        `json:"error,omitempty"`
	RunAt         time.Time     `json:"run_at"`
}

// SubredditCount pairs a subreddit with a post count.
type SubredditCount struct {
	Subreddit string `json:"subreddit"`
	Count     int    `json:"count"`
}

// Stats summarizes the contents of the local database.
type Stats struct {
	TotalPosts       int              `json:"total_posts"`
	RelevantPosts    int              `json:"relevant_posts"`
	UniqueSubreddits int              `json:"unique_subreddits"`
	MonitoringRuns   int              `json:"monitoring_runs"`
	TopSubreddits    []SubredditCount `json:"top_subreddits"`
}

// AccountInfo describes the authenticated Reddit account.
type AccountInfo struct {
	Username     string    `json:"username"`
	PostKarma    int       `json:"post_karma"`
	CommentKarma int       `json:"comment_karma"`
	Created      time.Time `json:"created"`
}

// SubredditInfo describes a subreddit.
type SubredditInfo struct {
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subscribers int       `json:"subscribers"`
	Type        string    `json:"type"`
	Created     time.Time `json:"created"`
}

// UserProfile describes a Reddit user.
type UserProfile struct {
	Username     string    `json:"username"`
	PostKarma    int       `json:"post_karma"`
	CommentKarma int       `json:"comment_karma"`
	Created      time.Time `json:"created"`
}

// Collector defines the interface for data fetching.
type Collector interface {
	// FetchPosts returns up to limit posts from a subreddit in the given
	// sort order.
	FetchPosts(ctx context.Context, subreddit, sort string, limit int) ([]Post, error)

	// SearchPosts searches for posts matching query. An empty subreddit
	// searches all of Reddit.
	SearchPosts(ctx context.Context, query, subreddit string, limit int) ([]Post, error)

	// Verify checks connectivity and, where applicable, credentials.
	Verify(ctx context.Context) (*AccountInfo, error)

	// SubredditInfo looks up metadata for a subreddit.
	SubredditInfo(ctx context.Context, name string) (*SubredditInfo, error)

	// UserProfile looks up a user's public profile.
	UserProfile(ctx context.Context, username string) (*UserProfile, error)
}
