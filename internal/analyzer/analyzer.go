// Package analyzer scores posts against a configured keyword set, with an
// optional LLM relevance pass.
package analyzer

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/qepting91/redditwatch/internal/domain"
)

// aiConcurrency caps parallel provider calls in AnalyzeBatch.
const aiConcurrency = 4

// Match is the relevance judgment for a single post.
type Match struct {
	Relevant bool     `json:"relevant"`
	Score    float64  `json:"score"`
	Keywords []string `json:"keywords,omitempty"`
}

// Provider is an external relevance scorer. Implementations return a score
// in [0, 1].
type Provider interface {
	Relevance(ctx context.Context, post domain.Post, keywords []string) (float64, error)
}

// Analyzer matches posts against keywords. If a Provider is set, keyword
// hits are refined by averaging with the provider's score.
type Analyzer struct {
	keywords []string
	provider Provider
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithProvider enables the AI relevance pass.
func WithProvider(p Provider) Option {
	return func(a *Analyzer) { a.provider = p }
}

// New builds an Analyzer. Keywords are lowercased once up front; matching is
// case-insensitive substring against title and body.
func New(keywords []string, opts ...Option) *Analyzer {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}

	a := &Analyzer{keywords: lowered}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Match runs the keyword pass only. An empty keyword set matches nothing:
// posts are still stored upstream, but none are marked relevant. The score
// is the fraction of configured keywords found, capped at 1.
func (a *Analyzer) Match(p domain.Post) Match {
	if len(a.keywords) == 0 {
		return Match{}
	}

	text := strings.ToLower(p.Title + " " + p.Selftext)

	var matched []string
	for _, k := range a.keywords {
		if strings.Contains(text, k) {
			matched = append(matched, k)
		}
	}
	if len(matched) == 0 {
		return Match{}
	}

	score := float64(len(matched)) / float64(len(a.keywords))
	if score > 1 {
		score = 1
	}
	return Match{Relevant: true, Score: score, Keywords: matched}
}

// Analyze combines the keyword pass with the provider, when one is
// configured. The provider only runs on keyword hits, and its score is
// averaged with the keyword score. A provider failure degrades to the
// keyword judgment rather than failing the post.
func (a *Analyzer) Analyze(ctx context.Context, p domain.Post) Match {
	m := a.Match(p)
	if !m.Relevant || a.provider == nil {
		return m
	}

	aiScore, err := a.provider.Relevance(ctx, p, a.keywords)
	if err != nil {
		log.WithError(err).WithField("reddit_id", p.RedditID).Warn("AI analysis failed, using keyword score")
		return m
	}

	m.Score = (m.Score + aiScore) / 2
	return m
}

// AnalyzeBatch analyzes posts concurrently, preserving input order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, posts []domain.Post) []Match {
	matches := make([]Match, len(posts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(aiConcurrency)
	for i, p := range posts {
		g.Go(func() error {
			matches[i] = a.Analyze(ctx, p)
			return nil
		})
	}
	// Analyze never returns an error, so there is nothing to propagate.
	_ = g.Wait()

	return matches
}
