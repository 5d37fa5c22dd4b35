// Command redditwatch monitors a set of subreddits for keyword matches and
// stores the results in a local SQLite database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/qepting91/redditwatch/internal/analyzer"
	"github.com/qepting91/redditwatch/internal/collector"
	"github.com/qepting91/redditwatch/internal/config"
	"github.com/qepting91/redditwatch/internal/dashboard"
	"github.com/qepting91/redditwatch/internal/domain"
	"github.com/qepting91/redditwatch/internal/ingest"
	"github.com/qepting91/redditwatch/internal/monitor"
	"github.com/qepting91/redditwatch/internal/storage"
)

const usage = `usage: redditwatch <command> [flags]

commands:
  fetch <subreddit>   fetch posts from a subreddit
  search <query>      search Reddit posts
  monitor             run the scheduled monitoring pipeline
  posts               view stored posts
  stats               show database statistics
  test                verify Reddit connectivity/credentials
  subreddit <name>    show subreddit info
  user <name>         show user profile
  cleanup             delete old posts
  dashboard           serve the stats dashboard
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	setupLogging(cfg)
	applyFileOverrides(cfg)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "fetch":
		cmdFetch(cfg, os.Args[2:])
	case "search":
		cmdSearch(cfg, os.Args[2:])
	case "monitor":
		cmdMonitor(cfg, os.Args[2:])
	case "posts":
		cmdPosts(cfg, os.Args[2:])
	case "stats":
		cmdStats(cfg, os.Args[2:])
	case "test":
		cmdTest(cfg)
	case "subreddit":
		cmdSubreddit(cfg, os.Args[2:])
	case "user":
		cmdUser(cfg, os.Args[2:])
	case "cleanup":
		cmdCleanup(cfg, os.Args[2:])
	case "dashboard":
		cmdDashboard(cfg, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.WithError(err).Warn("Could not open log file, logging to stderr only")
			return
		}
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}
}

// applyFileOverrides replaces the env-configured lists with CSV contents
// when override files are configured.
func applyFileOverrides(cfg *config.Config) {
	if cfg.TargetsFile != "" {
		subs, err := ingest.LoadSubreddits(cfg.TargetsFile)
		if err != nil {
			log.WithError(err).WithField("path", cfg.TargetsFile).Fatal("Could not load targets file")
		}
		cfg.TargetSubreddits = subs
	}
	if cfg.KeywordsFile != "" {
		kws, err := ingest.LoadKeywords(cfg.KeywordsFile)
		if err != nil {
			log.WithError(err).WithField("path", cfg.KeywordsFile).Fatal("Could not load keywords file")
		}
		cfg.Keywords = kws
	}
}

func newCollector(cfg *config.Config) domain.Collector {
	c, err := collector.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize collector")
	}
	return c
}

func openStore(cfg *config.Config) *storage.Store {
	s, err := storage.Open(cfg.DatabaseFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	return s
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("Failed to encode JSON")
	}
	fmt.Println(string(out))
}

func printPost(p domain.Post) {
	fmt.Printf("\n%s\n", p.Title)
	fmt.Printf("  r/%s | %d pts | %d comments\n", p.Subreddit, p.Score, p.NumComments)
	fmt.Printf("  by %s\n", p.Author)
}

func cmdFetch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	limit := fs.IntP("limit", "l", 10, "number of posts")
	sort := fs.StringP("sort", "s", domain.SortNew, "sort order (new, hot, top, rising)")
	asJSON := fs.BoolP("json", "j", false, "JSON output")
	store := fs.Bool("store", false, "store fetched posts in the database")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: redditwatch fetch <subreddit> [flags]")
		os.Exit(2)
	}
	sub := fs.Arg(0)
	if !domain.ValidSort(*sort) {
		log.WithField("sort", *sort).Fatal("Unknown sort order")
	}

	c := newCollector(cfg)
	posts, err := c.FetchPosts(context.Background(), sub, *sort, *limit)
	if err != nil {
		log.WithError(err).Fatal("Fetch failed")
	}

	if *asJSON {
		printJSON(posts)
		return
	}

	var db *storage.Store
	if *store {
		db = openStore(cfg)
		defer db.Close()
	}

	for _, p := range posts {
		printPost(p)
		if db != nil {
			inserted, err := db.SavePost(p)
			if err != nil {
				log.WithError(err).Fatal("Store failed")
			}
			if inserted {
				fmt.Println("  [Stored]")
			}
		}
	}
}

func cmdSearch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	sub := fs.StringP("subreddit", "s", "", "limit to subreddit")
	limit := fs.IntP("limit", "l", 10, "number of results")
	asJSON := fs.BoolP("json", "j", false, "JSON output")
	store := fs.Bool("store", false, "store results in the database")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: redditwatch search <query> [flags]")
		os.Exit(2)
	}
	query := fs.Arg(0)

	c := newCollector(cfg)
	posts, err := c.SearchPosts(context.Background(), query, *sub, *limit)
	if err != nil {
		log.WithError(err).Fatal("Search failed")
	}
	if len(posts) == 0 {
		fmt.Println("No posts found.")
		return
	}

	if *asJSON {
		printJSON(posts)
		return
	}

	var db *storage.Store
	if *store {
		db = openStore(cfg)
		defer db.Close()
	}

	for _, p := range posts {
		printPost(p)
		if db != nil {
			inserted, err := db.SavePost(p)
			if err != nil {
				log.WithError(err).Fatal("Store failed")
			}
			if inserted {
				fmt.Println("  [Stored]")
			}
		}
	}
}

func cmdMonitor(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	once := fs.Bool("once", false, "run one cycle and exit")
	useAI := fs.BoolP("ai", "a", false, "use AI relevance analysis")
	fs.Parse(args)

	c := newCollector(cfg)
	db := openStore(cfg)
	defer db.Close()

	var opts []analyzer.Option
	if *useAI {
		if cfg.AnthropicAPIKey == "" {
			log.Fatal("ANTHROPIC_API_KEY is required for --ai")
		}
		opts = append(opts, analyzer.WithProvider(analyzer.NewClaudeProvider(cfg.AnthropicAPIKey, cfg.AIModel)))
	}
	a := analyzer.New(cfg.Keywords, opts...)

	m, err := monitor.New(cfg.TargetSubreddits, cfg.FetchLimit, cfg.MonitorInterval(), c, a, db)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize monitor")
	}

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		m.RunCycle(ctx)
		return
	}

	log.WithField("interval", cfg.MonitorInterval()).Info("Scheduler starting, press Ctrl+C to stop")
	m.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	<-m.Stop().Done()
}

func cmdPosts(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("posts", flag.ExitOnError)
	sub := fs.StringP("subreddit", "s", "", "filter by subreddit")
	relevant := fs.BoolP("relevant", "r", false, "only relevant posts")
	limit := fs.IntP("limit", "l", 20, "number of posts")
	days := fs.IntP("days", "d", 7, "maximum age in days")
	asJSON := fs.BoolP("json", "j", false, "JSON output")
	fs.Parse(args)

	db := openStore(cfg)
	defer db.Close()

	filter := storage.PostFilter{
		Subreddit:  *sub,
		MaxAgeDays: *days,
		Limit:      *limit,
	}
	if fs.Changed("relevant") {
		filter.Relevant = relevant
	}

	posts, err := db.ListPosts(filter)
	if err != nil {
		log.WithError(err).Fatal("Query failed")
	}
	if len(posts) == 0 {
		fmt.Println("No posts found.")
		return
	}

	if *asJSON {
		printJSON(posts)
		return
	}

	for _, p := range posts {
		status := " "
		if p.Relevant != nil {
			if *p.Relevant {
				status = "+"
			} else {
				status = "-"
			}
		}
		fmt.Printf("\n%s %s\n", status, p.Title)
		fmt.Printf("  r/%s | %d pts | %d comments\n", p.Subreddit, p.Score, p.NumComments)
		fmt.Printf("  by %s\n", p.Author)
		if p.RelevanceScore > 0 {
			fmt.Printf("  Relevance: %.2f\n", p.RelevanceScore)
		}
	}
}

func cmdStats(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	asJSON := fs.BoolP("json", "j", false, "JSON output")
	fs.Parse(args)

	db := openStore(cfg)
	defer db.Close()

	stats, err := db.Stats()
	if err != nil {
		log.WithError(err).Fatal("Stats query failed")
	}

	if *asJSON {
		printJSON(stats)
		return
	}

	fmt.Println("\nDatabase Statistics")
	fmt.Println("========================================")
	fmt.Printf("Total Posts: %d\n", stats.TotalPosts)
	fmt.Printf("Relevant Posts: %d\n", stats.RelevantPosts)
	fmt.Printf("Unique Subreddits: %d\n", stats.UniqueSubreddits)
	fmt.Printf("Monitoring Runs: %d\n", stats.MonitoringRuns)

	if len(stats.TopSubreddits) > 0 {
		fmt.Println("\nTop Subreddits:")
		for _, c := range stats.TopSubreddits {
			fmt.Printf("  r/%s: %d posts\n", c.Subreddit, c.Count)
		}
	}
}

func cmdTest(cfg *config.Config) {
	c := newCollector(cfg)
	info, err := c.Verify(context.Background())
	if err != nil {
		fmt.Printf("FAIL: %v\n", err)
		os.Exit(1)
	}

	if info == nil {
		fmt.Println("OK: Reddit reachable (public mode, no credentials)")
		return
	}
	fmt.Printf("OK: Authenticated as %s\n", info.Username)
	fmt.Printf("  Post Karma: %d\n", info.PostKarma)
	fmt.Printf("  Comment Karma: %d\n", info.CommentKarma)
	fmt.Printf("  Account Age: %d days\n", int(time.Since(info.Created).Hours()/24))
}

func cmdSubreddit(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("subreddit", flag.ExitOnError)
	asJSON := fs.BoolP("json", "j", false, "JSON output")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: redditwatch subreddit <name>")
		os.Exit(2)
	}

	c := newCollector(cfg)
	info, err := c.SubredditInfo(context.Background(), fs.Arg(0))
	if err != nil {
		log.WithError(err).Fatal("Lookup failed")
	}

	if *asJSON {
		printJSON(info)
		return
	}

	fmt.Printf("\nr/%s\n", info.Name)
	fmt.Printf("  Subscribers: %d\n", info.Subscribers)
	fmt.Printf("  Type: %s\n", info.Type)
	if info.Description != "" {
		fmt.Printf("  Description: %s\n", info.Description)
	}
}

func cmdUser(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	asJSON := fs.BoolP("json", "j", false, "JSON output")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: redditwatch user <name>")
		os.Exit(2)
	}

	c := newCollector(cfg)
	profile, err := c.UserProfile(context.Background(), fs.Arg(0))
	if err != nil {
		log.WithError(err).Fatal("Lookup failed")
	}

	if *asJSON {
		printJSON(profile)
		return
	}

	fmt.Printf("\nu/%s\n", profile.Username)
	fmt.Printf("  Post Karma: %d\n", profile.PostKarma)
	fmt.Printf("  Comment Karma: %d\n", profile.CommentKarma)
	fmt.Printf("  Account Age: %d days\n", int(time.Since(profile.Created).Hours()/24))
}

func cmdCleanup(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	days := fs.IntP("days", "d", 30, "delete posts older than this many days")
	fs.Parse(args)

	db := openStore(cfg)
	defer db.Close()

	deleted, err := db.Cleanup(*days)
	if err != nil {
		log.WithError(err).Fatal("Cleanup failed")
	}
	fmt.Printf("Deleted %d posts older than %d days\n", deleted, *days)
}

func cmdDashboard(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	port := fs.StringP("port", "p", cfg.DashboardPort, "listen port")
	fs.Parse(args)

	db := openStore(cfg)
	defer db.Close()

	log.WithField("port", *port).Info("Starting dashboard")
	if err := dashboard.StartServer(db, *port); err != nil {
		log.WithError(err).Fatal("Dashboard failed")
	}
}
