package collector

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/qepting91/redditwatch/internal/domain"
)

// MockClient implements domain.Collector with fake data, useful for dry
// runs and tests without network access.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (mc *MockClient) FetchPosts(ctx context.Context, sub, sort string, limit int) ([]domain.Post, error) {
	now := time.Now()
	posts := make([]domain.Post, 0, limit)
	for i := 0; i < limit; i++ {
		posts = append(posts, domain.Post{
			RedditID:    fmt.Sprintf("mock_%s_%d", sub, i),
			Subreddit:   sub,
			Title:       fmt.Sprintf("[%s] Simulated post #%d looking for feedback", sub, i),
			Selftext:    "Simulated selftext body.",
			Author:      "simulated_user",
			Score:       rand.Intn(500),
			UpvoteRatio: 0.9,
			NumComments: rand.Intn(50),
			CreatedUTC:  float64(now.Unix()),
			URL:         "http://localhost/mock-url",
			Permalink:   fmt.Sprintf("https://reddit.com/r/%s/comments/mock_%d/", sub, i),
			IsSelf:      true,
			FetchedAt:   now,
		})
	}
	return posts, nil
}

func (mc *MockClient) SearchPosts(ctx context.Context, query, sub string, limit int) ([]domain.Post, error) {
	if sub == "" {
		sub = "all"
	}
	return mc.FetchPosts(ctx, sub, domain.SortNew, limit)
}

func (mc *MockClient) Verify(ctx context.Context) (*domain.AccountInfo, error) {
	return &domain.AccountInfo{
		Username:     "simulated_user",
		PostKarma:    100,
		CommentKarma: 200,
		Created:      time.Now().AddDate(-1, 0, 0),
	}, nil
}

func (mc *MockClient) SubredditInfo(ctx context.Context, name string) (*domain.SubredditInfo, error) {
	return &domain.SubredditInfo{
		Name:        name,
		Title:       "Simulated subreddit",
		Description: "Simulated subreddit for dry runs.",
		Subscribers: 1000,
		Type:        "public",
		Created:     time.Now().AddDate(-2, 0, 0),
	}, nil
}

func (mc *MockClient) UserProfile(ctx context.Context, username string) (*domain.UserProfile, error) {
	return &domain.UserProfile{
		Username:     username,
		PostKarma:    100,
		CommentKarma: 200,
		Created:      time.Now().AddDate(-1, 0, 0),
	}, nil
}
