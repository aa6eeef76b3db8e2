package aggregate

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/domain/reading"
)

func event(author, title, reader string, rating int) reading.Event {
	return reading.Event{
		Author:    author,
		Title:     title,
		Timestamp: time.Now().UTC(),
		Reader:    reader,
		Rating:    rating,
	}
}

func TestCountsSumToApplied(t *testing.T) {
	e := New()
	titles := []string{"T1", "T2", "T1", "T3", "T1", "T2"}
	for i, title := range titles {
		e.Update(event("A", title, fmt.Sprintf("r%d", i), 3))
	}
	sum := 0
	for _, entry := range e.TopN(100) {
		sum += entry.Count
	}
	if sum != len(titles) {
		t.Fatalf("expected sum %d, got %d", len(titles), sum)
	}
	if e.Total() != len(titles) {
		t.Fatalf("expected total %d, got %d", len(titles), e.Total())
	}
}

func TestTopNOrderAndTruncation(t *testing.T) {
	e := New()
	e.Update(event("A", "T1", "r1", 5))
	e.Update(event("B", "T1", "r2", 3))
	e.Update(event("A", "T2", "r1", 4))

	top := e.TopN(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Title != "T1" || top[0].Count != 2 {
		t.Fatalf("unexpected first entry: %+v", top[0])
	}
	if top[1].Title != "T2" || top[1].Count != 1 {
		t.Fatalf("unexpected second entry: %+v", top[1])
	}

	if got := e.TopN(1); len(got) != 1 {
		t.Fatalf("expected truncation to 1, got %d", len(got))
	}
	if got := e.TopN(100); len(got) != 2 {
		t.Fatalf("expected all entries, got %d", len(got))
	}
	if got := e.TopN(0); got != nil {
		t.Fatalf("expected nil for n=0, got %+v", got)
	}
	if got := e.TopN(-1); got != nil {
		t.Fatalf("expected nil for n=-1, got %+v", got)
	}
}

func TestTieBreakIsFirstSeenAndStable(t *testing.T) {
	e := New()
	// Same count for every title; ranking must follow admission order.
	for _, title := range []string{"Zeta", "Alpha", "Mid"} {
		e.Update(event("A", title, "r1", 3))
	}
	want := []string{"Zeta", "Alpha", "Mid"}
	for i := 0; i < 5; i++ {
		top := e.TopN(3)
		for j, entry := range top {
			if entry.Title != want[j] {
				t.Fatalf("call %d: expected %v, got %+v", i, want, top)
			}
		}
	}
}

func TestSameEventTwiceCountsTwice(t *testing.T) {
	e := New()
	ev := event("A", "T1", "r1", 5)
	e.Update(ev)
	e.Update(ev)

	top := e.TopN(1)
	if top[0].Count != 2 {
		t.Fatalf("expected count 2, got %d", top[0].Count)
	}
	if top[0].Readers != 1 {
		t.Fatalf("expected 1 distinct reader, got %d", top[0].Readers)
	}
}

func TestDistinctReadersAndAvgRating(t *testing.T) {
	e := New()
	e.Update(event("A", "T1", "r1", 5))
	e.Update(event("A", "T1", "r2", 3))
	e.Update(event("A", "T1", "r1", 4))

	top := e.TopN(1)
	if top[0].Readers != 2 {
		t.Fatalf("expected 2 distinct readers, got %d", top[0].Readers)
	}
	if top[0].AvgRating != 4.0 {
		t.Fatalf("expected avg rating 4.0, got %v", top[0].AvgRating)
	}
}

func TestConcurrentUpdatesAndSnapshots(t *testing.T) {
	e := New()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		reader := fmt.Sprintf("r%d", i%7)
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Update(event("A", "T1", reader, 3))
		}()
	}

	// Snapshot while writes are in flight; every view must be
	// internally consistent (readers never exceed count).
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			for _, entry := range e.TopN(10) {
				if entry.Readers > entry.Count {
					t.Errorf("torn snapshot: %+v", entry)
				}
			}
		}
	}()

	wg.Wait()
	top := e.TopN(1)
	if top[0].Count != 100 {
		t.Fatalf("expected 100, got %d", top[0].Count)
	}
	if top[0].Readers != 7 {
		t.Fatalf("expected 7 distinct readers, got %d", top[0].Readers)
	}
}
