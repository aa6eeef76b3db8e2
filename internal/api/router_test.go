package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/aggregate"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/domain/reading"
)

func seedEngine() *aggregate.Engine {
	e := aggregate.New()
	for _, ev := range []struct {
		title, reader string
	}{
		{"T1", "r1"}, {"T1", "r2"}, {"T2", "r1"},
	} {
		e.Update(reading.Event{
			Author:    "A",
			Title:     ev.title,
			Timestamp: time.Now(),
			Reader:    ev.reader,
			Rating:    4,
		})
	}
	return e
}

func TestRankingsEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewRouter(seedEngine()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/rankings?n=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	var body struct {
		TotalEvents int               `json:"total_events"`
		Titles      int               `json:"titles"`
		Rankings    []aggregate.Entry `json:"rankings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalEvents != 3 || body.Titles != 2 {
		t.Fatalf("unexpected totals: %+v", body)
	}
	if len(body.Rankings) != 1 || body.Rankings[0].Title != "T1" || body.Rankings[0].Count != 2 {
		t.Fatalf("unexpected rankings: %+v", body.Rankings)
	}
}

func TestRankingsRejectsBadN(t *testing.T) {
	srv := httptest.NewServer(NewRouter(aggregate.New()))
	defer srv.Close()

	for _, n := range []string{"0", "-3", "abc"} {
		resp, err := http.Get(srv.URL + "/rankings?n=" + n)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("n=%s: expected 400, got %d", n, resp.StatusCode)
		}
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(NewRouter(aggregate.New()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
