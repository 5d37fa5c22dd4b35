package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/qepting91/redditwatch/internal/domain"
)

const publicBaseURL = "https://www.reddit.com"

// PublicClient fetches posts through Reddit's unauthenticated JSON listings.
type PublicClient struct {
	rest    *resty.Client
	limiter *rate.Limiter
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	IsSelf      bool    `json:"is_self"`
}

type aboutResponse struct {
	Data struct {
		DisplayName       string  `json:"display_name"`
		Title             string  `json:"title"`
		PublicDescription string  `json:"public_description"`
		Subscribers       int     `json:"subscribers"`
		SubredditType     string  `json:"subreddit_type"`
		Name              string  `json:"name"`
		CreatedUTC        float64 `json:"created_utc"`
		LinkKarma         int     `json:"link_karma"`
		CommentKarma      int     `json:"comment_karma"`
	} `json:"data"`
}

// NewPublicClient returns a client for the public JSON endpoints. A real
// user agent is required or Reddit serves 429s aggressively.
func NewPublicClient(userAgent string) (*PublicClient, error) {
	if userAgent == "" {
		return nil, fmt.Errorf("user agent is required for public mode")
	}
	rest := resty.New().
		SetBaseURL(publicBaseURL).
		SetHeader("User-Agent", userAgent).
		SetTimeout(10 * time.Second)

	return &PublicClient{
		rest: rest,
		// Public JSON Limit: 1 req / 2 seconds (stricter than the API)
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}, nil
}

// FetchPosts returns posts from /r/<sub>/<sort>.json.
func (pc *PublicClient) FetchPosts(ctx context.Context, sub, sort string, limit int) ([]domain.Post, error) {
	if !domain.ValidSort(sort) {
		sort = domain.SortNew
	}

	var listing listingResponse
	err := pc.get(ctx, fmt.Sprintf("/r/%s/%s.json", sub, sort), map[string]string{
		"limit": fmt.Sprint(limit),
	}, &listing)
	if err != nil {
		return nil, err
	}

	return pc.convert(listing), nil
}

// SearchPosts queries /search.json, or /r/<sub>/search.json restricted to a
// single subreddit.
func (pc *PublicClient) SearchPosts(ctx context.Context, query, sub string, limit int) ([]domain.Post, error) {
	path := "/search.json"
	params := map[string]string{
		"q":     query,
		"limit": fmt.Sprint(limit),
		"sort":  "relevance",
		"type":  "link",
	}
	if sub != "" {
		path = fmt.Sprintf("/r/%s/search.json", sub)
		params["restrict_sr"] = "1"
	}

	var listing listingResponse
	if err := pc.get(ctx, path, params, &listing); err != nil {
		return nil, err
	}

	return pc.convert(listing), nil
}

// Verify confirms the public endpoints are reachable. No credentials are
// involved in public mode, so no account info is returned.
func (pc *PublicClient) Verify(ctx context.Context) (*domain.AccountInfo, error) {
	var listing listingResponse
	err := pc.get(ctx, "/r/all/new.json", map[string]string{"limit": "1"}, &listing)
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// SubredditInfo reads /r/<name>/about.json.
func (pc *PublicClient) SubredditInfo(ctx context.Context, name string) (*domain.SubredditInfo, error) {
	var about aboutResponse
	if err := pc.get(ctx, fmt.Sprintf("/r/%s/about.json", name), nil, &about); err != nil {
		return nil, err
	}

	return &domain.SubredditInfo{
		Name:        about.Data.DisplayName,
		Title:       about.Data.Title,
		Description: about.Data.PublicDescription,
		Subscribers: about.Data.Subscribers,
		Type:        about.Data.SubredditType,
		Created:     time.Unix(int64(about.Data.CreatedUTC), 0),
	}, nil
}

// UserProfile reads /user/<name>/about.json.
func (pc *PublicClient) UserProfile(ctx context.Context, username string) (*domain.UserProfile, error) {
	var about aboutResponse
	if err := pc.get(ctx, fmt.Sprintf("/user/%s/about.json", username), nil, &about); err != nil {
		return nil, err
	}

	return &domain.UserProfile{
		Username:     about.Data.Name,
		PostKarma:    about.Data.LinkKarma,
		CommentKarma: about.Data.CommentKarma,
		Created:      time.Unix(int64(about.Data.CreatedUTC), 0),
	}, nil
}

func (pc *PublicClient) get(ctx context.Context, path string, params map[string]string, out any) error {
	if err := pc.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := pc.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("reddit public access: %w", err)
	}
	if resp.IsError() {
		return statusError(resp.StatusCode())
	}
	return nil
}

func (pc *PublicClient) convert(listing listingResponse) []domain.Post {
	now := time.Now()
	posts := make([]domain.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		posts = append(posts, domain.Post{
			RedditID:    d.ID,
			Subreddit:   d.Subreddit,
			Title:       d.Title,
			Selftext:    d.Selftext,
			Author:      d.Author,
			Score:       d.Score,
			UpvoteRatio: d.UpvoteRatio,
			NumComments: d.NumComments,
			CreatedUTC:  d.CreatedUTC,
			URL:         d.URL,
			Permalink:   "https://reddit.com" + d.Permalink,
			IsSelf:      d.IsSelf,
			FetchedAt:   now,
		})
	}
	return posts
}
