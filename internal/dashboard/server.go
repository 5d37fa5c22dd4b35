// Package dashboard serves go-echarts views over the stored posts.
package dashboard

import (
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	log "github.com/sirupsen/logrus"

	"github.com/qepting91/redditwatch/internal/storage"
)

// StartServer serves the dashboard on the given port, reading live data from
// the store on each request. Blocks until the listener fails.
func StartServer(store *storage.Store, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if err := render(w, store); err != nil {
			log.WithError(err).Error("Dashboard render failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	})

	return http.ListenAndServe(":"+port, mux)
}

func render(w http.ResponseWriter, store *storage.Store) error {
	subCounts, err := store.SubredditCounts()
	if err != nil {
		return err
	}
	kwCounts, err := store.KeywordCounts()
	if err != nil {
		return err
	}

	// 1. Subreddit share
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Subreddit Dominance"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	var pieItems []opts.PieData
	for _, c := range subCounts {
		pieItems = append(pieItems, opts.PieData{Name: c.Subreddit, Value: c.Count})
	}
	pie.AddSeries("Posts", pieItems)

	// 2. Keyword hits
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Keyword Hits"}))

	var barX []string
	var barY []opts.BarData
	for k, v := range kwCounts {
		barX = append(barX, k)
		barY = append(barY, opts.BarData{Value: v})
	}
	bar.SetXAxis(barX).AddSeries("Mentions", barY)

	if err := pie.Render(w); err != nil {
		return err
	}
	return bar.Render(w)
}
