// Package ingest loads optional subreddit and keyword lists from CSV files,
// overriding the environment-configured lists.
package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"strings"
)

// Regex for valid subreddit names
var subNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// LoadSubreddits reads subreddit names from a single-column CSV with a
// header row. Invalid names are skipped rather than failing the load.
func LoadSubreddits(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1

	var subs []string
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		line++
		if line == 1 || len(record) == 0 {
			continue // skip header
		}

		sub := strings.TrimSpace(record[0])
		if !subNameRegex.MatchString(sub) {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// LoadKeywords reads keywords from a single-column CSV with a header row.
// Keywords are lowercased.
func LoadKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1

	var kws []string
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		line++
		if line == 1 || len(rec) == 0 {
			continue
		}

		kw := strings.ToLower(strings.TrimSpace(rec[0]))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return kws, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rn, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rn != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
