package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/time/rate"

	"github.com/qepting91/redditwatch/internal/domain"
)

// APIClient fetches posts through the authenticated Reddit API.
type APIClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
}

// NewAPIClient requires a userAgent string to comply with Reddit's API rules.
func NewAPIClient(id, secret, user, pass, userAgent string) (*APIClient, error) {
	creds := reddit.Credentials{ID: id, Secret: secret, Username: user, Password: pass}

	client, err := reddit.NewClient(creds, reddit.WithUserAgent(userAgent))
	if err != nil {
		return nil, err
	}

	// API Rate Limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &APIClient{client: client, limiter: limiter}, nil
}

// FetchPosts returns posts from a subreddit in the given sort order.
func (ac *APIClient) FetchPosts(ctx context.Context, sub, sort string, limit int) ([]domain.Post, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &reddit.ListOptions{Limit: limit}

	var posts []*reddit.Post
	var resp *reddit.Response
	var err error
	switch sort {
	case domain.SortHot:
		posts, resp, err = ac.client.Subreddit.HotPosts(ctx, sub, opts)
	case domain.SortTop:
		posts, resp, err = ac.client.Subreddit.TopPosts(ctx, sub, &reddit.ListPostOptions{ListOptions: *opts, Time: "day"})
	case domain.SortRising:
		posts, resp, err = ac.client.Subreddit.RisingPosts(ctx, sub, opts)
	default:
		posts, resp, err = ac.client.Subreddit.NewPosts(ctx, sub, opts)
	}
	if err != nil {
		return nil, ac.wrapErr(resp, err)
	}

	return convertPosts(posts, sub), nil
}

// SearchPosts searches for posts matching query. An empty subreddit searches
// all of Reddit.
func (ac *APIClient) SearchPosts(ctx context.Context, query, sub string, limit int) ([]domain.Post, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &reddit.ListPostSearchOptions{
		ListPostOptions: reddit.ListPostOptions{ListOptions: reddit.ListOptions{Limit: limit}},
		Sort:            "relevance",
	}
	posts, resp, err := ac.client.Subreddit.SearchPosts(ctx, query, sub, opts)
	if err != nil {
		return nil, ac.wrapErr(resp, err)
	}

	return convertPosts(posts, ""), nil
}

// Verify checks the configured credentials by fetching the account.
func (ac *APIClient) Verify(ctx context.Context) (*domain.AccountInfo, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	user, resp, err := ac.client.Account.Info(ctx)
	if err != nil {
		return nil, ac.wrapErr(resp, err)
	}

	return &domain.AccountInfo{
		Username:     user.Name,
		PostKarma:    user.PostKarma,
		CommentKarma: user.CommentKarma,
		Created:      user.Created.Time,
	}, nil
}

// SubredditInfo looks up subreddit metadata.
func (ac *APIClient) SubredditInfo(ctx context.Context, name string) (*domain.SubredditInfo, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	sub, resp, err := ac.client.Subreddit.Get(ctx, name)
	if err != nil {
		return nil, ac.wrapErr(resp, err)
	}

	return &domain.SubredditInfo{
		Name:        sub.Name,
		Title:       sub.Title,
		Description: sub.Description,
		Subscribers: sub.Subscribers,
		Type:        sub.Type,
		Created:     sub.Created.Time,
	}, nil
}

// UserProfile looks up a user's public profile.
func (ac *APIClient) UserProfile(ctx context.Context, username string) (*domain.UserProfile, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	user, resp, err := ac.client.User.Get(ctx, username)
	if err != nil {
		return nil, ac.wrapErr(resp, err)
	}

	return &domain.UserProfile{
		Username:     user.Name,
		PostKarma:    user.PostKarma,
		CommentKarma: user.CommentKarma,
		Created:      user.Created.Time,
	}, nil
}

func (ac *APIClient) wrapErr(resp *reddit.Response, err error) error {
	if resp != nil && resp.Response != nil {
		switch resp.StatusCode {
		case 429, 401, 403, 404:
			return statusError(resp.StatusCode)
		}
	}
	return fmt.Errorf("authenticated api error: %w", err)
}

func convertPosts(posts []*reddit.Post, sub string) []domain.Post {
	now := time.Now()
	result := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		subreddit := p.SubredditName
		if subreddit == "" {
			subreddit = sub
		}
		result = append(result, domain.Post{
			RedditID:    p.ID,
			Subreddit:   subreddit,
			Title:       p.Title,
			Selftext:    p.Body,
			Author:      p.Author,
			Score:       p.Score,
			UpvoteRatio: float64(p.UpvoteRatio),
			NumComments: p.NumberOfComments,
			CreatedUTC:  float64(p.Created.Time.Unix()),
			URL:         p.URL,
			Permalink:   "https://reddit.com" + p.Permalink,
			IsSelf:      p.IsSelfPost,
			FetchedAt:   now,
		})
	}
	return result
}
