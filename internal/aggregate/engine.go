// Package aggregate keeps the authoritative in-memory read counts per
// book title. It is the shared state between the consuming goroutine
// (the only writer) and the chart/dashboard readers.
package aggregate

import (
	"sort"
	"sync"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/domain/reading"
)

// Entry is one row of a ranking snapshot.
type Entry struct {
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Count     int     `json:"count"`
	Readers   int     `json:"distinct_readers"`
	AvgRating float64 `json:"avg_rating"`
}

type titleStats struct {
	author    string
	count     int
	readers   map[string]struct{}
	ratingSum int
	firstSeen int // admission order, tie-break for the ranking
}

type Engine struct {
	mu     sync.RWMutex
	titles map[string]*titleStats
	total  int
}

func New() *Engine {
	return &Engine{titles: make(map[string]*titleStats)}
}

// Update applies one reading event: the title's count grows by one and
// the reader joins its distinct-reader set. Both mutations happen under
// the same lock so a snapshot never observes one without the other.
func (e *Engine) Update(ev reading.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.titles[ev.Title]
	if !ok {
		st = &titleStats{
			author:    ev.Author,
			readers:   make(map[string]struct{}),
			firstSeen: len(e.titles),
		}
		e.titles[ev.Title] = st
	}
	st.count++
	st.ratingSum += ev.Rating
	st.readers[ev.Reader] = struct{}{}
	e.total++
}

// TopN returns an immutable copy of the current ranking truncated to n
// entries, descending by count, ties broken by first-seen order.
func (e *Engine) TopN(n int) []Entry {
	if n <= 0 {
		return nil
	}

	e.mu.RLock()
	type ranked struct {
		entry     Entry
		firstSeen int
	}
	rows := make([]ranked, 0, len(e.titles))
	for title, st := range e.titles {
		rows = append(rows, ranked{
			entry: Entry{
				Title:     title,
				Author:    st.author,
				Count:     st.count,
				Readers:   len(st.readers),
				AvgRating: float64(st.ratingSum) / float64(st.count),
			},
			firstSeen: st.firstSeen,
		})
	}
	e.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].entry.Count != rows[j].entry.Count {
			return rows[i].entry.Count > rows[j].entry.Count
		}
		return rows[i].firstSeen < rows[j].firstSeen
	})

	if n > len(rows) {
		n = len(rows)
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = rows[i].entry
	}
	return out
}

// Total reports the number of events applied so far. It only ever
// grows, so callers can use it as a cheap change detector between
// snapshots.
func (e *Engine) Total() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.total
}

// Titles reports how many distinct titles have been seen.
func (e *Engine) Titles() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.titles)
}
