// Package monitor runs the fetch → analyze → store pipeline on a fixed
// interval across the configured subreddits.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/qepting91/redditwatch/internal/analyzer"
	"github.com/qepting91/redditwatch/internal/domain"
	"github.com/qepting91/redditwatch/internal/storage"
)

// cycleTimeout bounds a full monitoring cycle across all subreddits.
const cycleTimeout = 30 * time.Minute

// Monitor owns the scheduled pipeline. Cycles run sequentially and never
// overlap; a slow cycle causes the next tick to be skipped.
type Monitor struct {
	subreddits []string
	fetchLimit int

	collector domain.Collector
	analyzer  *analyzer.Analyzer
	store     *storage.Store

	cron *cron.Cron
}

// New builds a Monitor polling the given subreddits every interval.
func New(subreddits []string, fetchLimit int, interval time.Duration, c domain.Collector, a *analyzer.Analyzer, s *storage.Store) (*Monitor, error) {
	if len(subreddits) == 0 {
		return nil, fmt.Errorf("no subreddits configured")
	}

	m := &Monitor{
		subreddits: subreddits,
		fetchLimit: fetchLimit,
		collector:  c,
		analyzer:   a,
		store:      s,
	}

	cronLog := cron.PrintfLogger(log.StandardLogger())
	m.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLog)))

	_, err := m.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		m.RunCycle(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling monitor job: %w", err)
	}

	return m, nil
}

// Start begins scheduled monitoring. The first cycle fires after one full
// interval; callers wanting an immediate pass use RunCycle first.
func (m *Monitor) Start() {
	log.WithField("subreddits", len(m.subreddits)).Info("Starting monitor")
	m.cron.Start()
}

// Stop halts scheduling and returns a context that is done once any running
// cycle completes.
func (m *Monitor) Stop() context.Context {
	log.Info("Stopping monitor")
	return m.cron.Stop()
}

// RunCycle executes one polling cycle across all configured subreddits. A
// failure for one subreddit is logged and recorded in the fetch log, and the
// cycle continues with the rest. A storage failure aborts the cycle since
// every subsequent write would hit the same database.
func (m *Monitor) RunCycle(ctx context.Context) {
	start := time.Now()
	log.Info("Starting monitoring cycle")

	for _, sub := range m.subreddits {
		if err := m.monitorSubreddit(ctx, sub); err != nil {
			log.WithError(err).Error("Aborting cycle on storage failure")
			return
		}
	}

	log.WithField("duration", time.Since(start).Round(time.Millisecond)).Info("Monitoring cycle complete")
}

// monitorSubreddit polls one subreddit and writes its fetch log entry. The
// returned error is non-nil only for local storage failures; upstream fetch
// errors are recorded in the entry and swallowed.
func (m *Monitor) monitorSubreddit(ctx context.Context, sub string) error {
	start := time.Now()
	logger := log.WithField("subreddit", sub)
	logger.Info("Monitoring subreddit")

	posts, err := m.collector.FetchPosts(ctx, sub, domain.SortNew, m.fetchLimit)
	if err != nil {
		logger.WithError(err).Error("Fetch failed")
		return m.store.LogRun(domain.FetchLogEntry{
			Subreddit: sub,
			Duration:  time.Since(start),
			Error:     err.Error(),
		})
	}

	var fresh []domain.Post
	for _, post := range posts {
		inserted, err := m.store.SavePost(post)
		if err != nil {
			return err
		}
		if !inserted {
			// Seen in a previous cycle.
			continue
		}
		fresh = append(fresh, post)
	}

	relevant := 0
	matches := m.analyzer.AnalyzeBatch(ctx, fresh)
	for i, match := range matches {
		if !match.Relevant {
			continue
		}

		if err := m.store.MarkRelevant(fresh[i].RedditID, true, match.Score, match.Keywords); err != nil {
			return err
		}
		relevant++
		logger.WithFields(log.Fields{
			"reddit_id": fresh[i].RedditID,
			"score":     fmt.Sprintf("%.2f", match.Score),
			"keywords":  match.Keywords,
		}).Info("Relevant post")
	}

	entry := domain.FetchLogEntry{
		Subreddit:     sub,
		PostsFetched:  len(posts),
		PostsStored:   len(fresh),
		PostsRelevant: relevant,
		Duration:      time.Since(start),
	}
	if err := m.store.LogRun(entry); err != nil {
		return err
	}

	logger.WithFields(log.Fields{
		"fetched":  len(posts),
		"stored":   len(fresh),
		"relevant": relevant,
	}).Info("Subreddit done")
	return nil
}
