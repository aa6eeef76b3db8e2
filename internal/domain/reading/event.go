package reading

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrBadRating    = errors.New("rating out of range")
	ErrBadTimestamp = errors.New("unparseable timestamp")
)

// Event is a single book-reading event as it travels through the
// pipeline. Title is the aggregation key.
type Event struct {
	Author    string
	Title     string
	Timestamp time.Time
	Reader    string
	Rating    int
}

// wireEvent is the fixed JSON schema published to the topic. Pointer
// fields let Decode tell an absent key apart from a zero value.
type wireEvent struct {
	Author    *string          `json:"author"`
	Title     *string          `json:"title"`
	Timestamp *string          `json:"timestamp"`
	Reader    *string          `json:"reader"`
	Rating    *json.RawMessage `json:"rating"`
}

// Validate reports the first contract violation, or nil for a
// well-formed event.
func (e Event) Validate() error {
	if e.Author == "" {
		return fmt.Errorf("%w: author", ErrMissingField)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if e.Reader == "" {
		return fmt.Errorf("%w: reader", ErrMissingField)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp", ErrMissingField)
	}
	if e.Rating < MinRating || e.Rating > MaxRating {
		return fmt.Errorf("%w: %d", ErrBadRating, e.Rating)
	}
	return nil
}

// Encode serializes the event to the wire schema. The event is
// validated first so a malformed record is never published.
func Encode(e Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("encode reading event: %w", err)
	}
	ts := e.Timestamp.UTC().Format(time.RFC3339)
	rating, _ := json.Marshal(e.Rating)
	raw := json.RawMessage(rating)
	w := wireEvent{
		Author:    &e.Author,
		Title:     &e.Title,
		Timestamp: &ts,
		Reader:    &e.Reader,
		Rating:    &raw,
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode reading event: %w", err)
	}
	return b, nil
}

// Decode parses a wire payload into an Event. A payload missing any
// key, or carrying a mistyped value, is rejected whole; no partially
// populated event is ever returned.
func Decode(payload []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return Event{}, fmt.Errorf("decode reading event: %w", err)
	}
	if w.Author == nil || w.Title == nil || w.Timestamp == nil || w.Reader == nil || w.Rating == nil {
		return Event{}, fmt.Errorf("decode reading event: %w", ErrMissingField)
	}

	ts, err := parseTimestamp(*w.Timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("decode reading event: %w", err)
	}

	var rating float64
	if err := json.Unmarshal(*w.Rating, &rating); err != nil {
		return Event{}, fmt.Errorf("decode reading event: rating is not a number: %w", err)
	}
	if rating != math.Trunc(rating) {
		return Event{}, fmt.Errorf("decode reading event: %w: %v is not an integer", ErrBadRating, rating)
	}

	e := Event{
		Author:    *w.Author,
		Title:     *w.Title,
		Timestamp: ts,
		Reader:    *w.Reader,
		Rating:    int(rating),
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// parseTimestamp accepts ISO-8601 (RFC 3339) or epoch seconds encoded
// as a numeric string.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}
