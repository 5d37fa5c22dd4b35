package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/qepting91/redditwatch/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPost(id, sub string) domain.Post {
	return domain.Post{
		RedditID:    id,
		Subreddit:   sub,
		Title:       "Post " + id,
		Selftext:    "body",
		Author:      "someone",
		Score:       10,
		UpvoteRatio: 0.9,
		NumComments: 3,
		CreatedUTC:  float64(time.Now().Unix()),
		URL:         "https://example.com/" + id,
		Permalink:   "https://reddit.com/r/" + sub + "/comments/" + id,
		IsSelf:      true,
		FetchedAt:   time.Now(),
	}
}

func TestSavePostDeduplicates(t *testing.T) {
	s := testStore(t)

	inserted, err := s.SavePost(testPost("abc", "golang"))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	if !inserted {
		t.Error("first save: inserted = false, want true")
	}

	// Same external ID fetched again in a later cycle.
	inserted, err = s.SavePost(testPost("abc", "golang"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if inserted {
		t.Error("second save: inserted = true, want false")
	}

	posts, err := s.ListPosts(PostFilter{})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d rows, want 1", len(posts))
	}
}

func TestSavePostConcurrent(t *testing.T) {
	s := testStore(t)

	const writers = 20
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.SavePost(testPost(fmt.Sprintf("c%d", i), "golang")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent save: %v", err)
	}

	posts, err := s.ListPosts(PostFilter{Limit: writers * 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != writers {
		t.Errorf("got %d rows, want %d", len(posts), writers)
	}
}

func TestMarkRelevantRoundTrip(t *testing.T) {
	s := testStore(t)

	if _, err := s.SavePost(testPost("abc", "golang")); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRelevant("abc", true, 0.5, []string{"feedback", "saas"}); err != nil {
		t.Fatalf("marking relevant: %v", err)
	}

	posts, err := s.ListPosts(PostFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}

	p := posts[0]
	if p.Relevant == nil || !*p.Relevant {
		t.Error("Relevant not set")
	}
	if p.RelevanceScore != 0.5 {
		t.Errorf("RelevanceScore = %v, want 0.5", p.RelevanceScore)
	}
	if len(p.KeywordsFound) != 2 || p.KeywordsFound[0] != "feedback" {
		t.Errorf("KeywordsFound = %v", p.KeywordsFound)
	}
}

func TestListPostsFilters(t *testing.T) {
	s := testStore(t)

	for _, p := range []domain.Post{
		testPost("a1", "golang"),
		testPost("a2", "golang"),
		testPost("b1", "rust"),
	} {
		if _, err := s.SavePost(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.MarkRelevant("a1", true, 1, []string{"feedback"}); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRelevant("a2", false, 0, nil); err != nil {
		t.Fatal(err)
	}

	bySub, err := s.ListPosts(PostFilter{Subreddit: "golang"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bySub) != 2 {
		t.Errorf("subreddit filter: got %d, want 2", len(bySub))
	}

	yes := true
	relevantOnly, err := s.ListPosts(PostFilter{Relevant: &yes})
	if err != nil {
		t.Fatal(err)
	}
	if len(relevantOnly) != 1 || relevantOnly[0].RedditID != "a1" {
		t.Errorf("relevant filter: got %v", relevantOnly)
	}

	limited, err := s.ListPosts(PostFilter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit filter: got %d, want 1", len(limited))
	}
}

func TestListPostsAgeCutoff(t *testing.T) {
	s := testStore(t)

	old := testPost("old", "golang")
	old.CreatedUTC = float64(time.Now().AddDate(0, 0, -30).Unix())
	if _, err := s.SavePost(old); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePost(testPost("new", "golang")); err != nil {
		t.Fatal(err)
	}

	recent, err := s.ListPosts(PostFilter{MaxAgeDays: 7})
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].RedditID != "new" {
		t.Errorf("age cutoff: got %v", recent)
	}
}

func TestFetchLogAppendOnly(t *testing.T) {
	s := testStore(t)

	entries := []domain.FetchLogEntry{
		{Subreddit: "golang", PostsFetched: 25, PostsStored: 5, PostsRelevant: 2, Duration: 1500 * time.Millisecond},
		{Subreddit: "rust", Error: "reddit: rate limited (status 429)"},
	}
	for _, e := range entries {
		if err := s.LogRun(e); err != nil {
			t.Fatalf("logging run: %v", err)
		}
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	var byName = map[string]domain.FetchLogEntry{}
	for _, r := range runs {
		byName[r.Subreddit] = r
	}
	if got := byName["golang"]; got.PostsFetched != 25 || got.PostsStored != 5 || got.PostsRelevant != 2 {
		t.Errorf("golang entry = %+v", got)
	}
	if got := byName["golang"].Duration; got != 1500*time.Millisecond {
		t.Errorf("duration = %v, want 1.5s", got)
	}
	if got := byName["rust"]; got.Error == "" {
		t.Error("rust entry lost its error message")
	}
}

func TestStats(t *testing.T) {
	s := testStore(t)

	for _, p := range []domain.Post{
		testPost("a1", "golang"),
		testPost("a2", "golang"),
		testPost("b1", "rust"),
	} {
		if _, err := s.SavePost(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.MarkRelevant("a1", true, 1, []string{"feedback"}); err != nil {
		t.Fatal(err)
	}
	if err := s.LogRun(domain.FetchLogEntry{Subreddit: "golang"}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalPosts != 3 {
		t.Errorf("TotalPosts = %d, want 3", stats.TotalPosts)
	}
	if stats.RelevantPosts != 1 {
		t.Errorf("RelevantPosts = %d, want 1", stats.RelevantPosts)
	}
	if stats.UniqueSubreddits != 2 {
		t.Errorf("UniqueSubreddits = %d, want 2", stats.UniqueSubreddits)
	}
	if stats.MonitoringRuns != 1 {
		t.Errorf("MonitoringRuns = %d, want 1", stats.MonitoringRuns)
	}
	if len(stats.TopSubreddits) == 0 || stats.TopSubreddits[0].Subreddit != "golang" {
		t.Errorf("TopSubreddits = %v", stats.TopSubreddits)
	}
}

func TestCleanup(t *testing.T) {
	s := testStore(t)

	old := testPost("old", "golang")
	old.CreatedUTC = float64(time.Now().AddDate(0, 0, -60).Unix())
	if _, err := s.SavePost(old); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePost(testPost("new", "golang")); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.Cleanup(30)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	posts, err := s.ListPosts(PostFilter{MaxAgeDays: 365})
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].RedditID != "new" {
		t.Errorf("remaining posts = %v", posts)
	}
}

func TestKeywordCounts(t *testing.T) {
	s := testStore(t)

	for _, p := range []domain.Post{testPost("a", "golang"), testPost("b", "golang")} {
		if _, err := s.SavePost(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.MarkRelevant("a", true, 1, []string{"feedback", "saas"}); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRelevant("b", true, 1, []string{"feedback"}); err != nil {
		t.Fatal(err)
	}

	counts, err := s.KeywordCounts()
	if err != nil {
		t.Fatal(err)
	}
	if counts["feedback"] != 2 || counts["saas"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
