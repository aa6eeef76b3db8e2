package source

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/domain/reading"
)

// Book is one row of the static dataset.
type Book struct {
	Author string
	Title  string
}

// DefaultBooks is the built-in catalog the static source cycles over.
var DefaultBooks = []Book{
	{Author: "Frank Herbert", Title: "Dune"},
	{Author: "Ursula K. Le Guin", Title: "The Dispossessed"},
	{Author: "Octavia E. Butler", Title: "Kindred"},
	{Author: "Isaac Asimov", Title: "Foundation"},
	{Author: "Mary Shelley", Title: "Frankenstein"},
	{Author: "Andy Weir", Title: "The Martian"},
	{Author: "N.K. Jemisin", Title: "The Fifth Season"},
	{Author: "Ted Chiang", Title: "Stories of Your Life"},
	{Author: "Liu Cixin", Title: "The Three-Body Problem"},
	{Author: "Emily St. John Mandel", Title: "Station Eleven"},
}

// DefaultReaders is the pool of reader ids the static source draws from.
var DefaultReaders = []string{
	"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi",
}

// Static synthesizes reading events by walking a book catalog with a
// wrapping cursor and picking a random reader and rating for each.
// With Loop disabled it signals ErrExhausted after one full pass.
type Static struct {
	books   []Book
	readers []string
	loop    bool
	cursor  int
	rng     *rand.Rand
}

type StaticOption func(*Static)

func WithBooks(books []Book) StaticOption {
	return func(s *Static) { s.books = books }
}

func WithReaders(readers []string) StaticOption {
	return func(s *Static) { s.readers = readers }
}

func WithLoop(loop bool) StaticOption {
	return func(s *Static) { s.loop = loop }
}

func WithSeed(seed int64) StaticOption {
	return func(s *Static) { s.rng = rand.New(rand.NewSource(seed)) }
}

func NewStatic(opts ...StaticOption) *Static {
	s := &Static{
		books:   DefaultBooks,
		readers: DefaultReaders,
		loop:    true,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Static) Next(ctx context.Context) (reading.Event, error) {
	for skipped := 0; skipped <= len(s.books); skipped++ {
		if err := ctx.Err(); err != nil {
			return reading.Event{}, err
		}
		if s.cursor >= len(s.books) {
			if !s.loop {
				return reading.Event{}, ErrExhausted
			}
			s.cursor = 0
		}
		if len(s.books) == 0 {
			return reading.Event{}, ErrExhausted
		}

		b := s.books[s.cursor]
		s.cursor++

		// Catalog rows missing a field are skipped, not fatal.
		if b.Author == "" || b.Title == "" {
			slog.Warn("skipping malformed catalog row", "author", b.Author, "title", b.Title)
			continue
		}

		return reading.Event{
			Author:    b.Author,
			Title:     b.Title,
			Timestamp: time.Now().UTC(),
			Reader:    s.readers[s.rng.Intn(len(s.readers))],
			Rating:    reading.MinRating + s.rng.Intn(reading.MaxRating-reading.MinRating+1),
		}, nil
	}
	// every row in the catalog was malformed
	return reading.Event{}, ErrExhausted
}
