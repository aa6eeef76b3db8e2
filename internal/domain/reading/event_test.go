package reading

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecode(t *testing.T) {
	in := Event{
		Author:    "Frank Herbert",
		Title:     "Dune",
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Reader:    "alice",
		Rating:    5,
	}
	payload, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: %+v != %+v", out, in)
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	_, err := Encode(Event{Author: "A", Reader: "r", Rating: 3, Timestamp: time.Now()})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	_, err = Encode(Event{Author: "A", Title: "T", Reader: "r", Rating: 9, Timestamp: time.Now()})
	if !errors.Is(err, ErrBadRating) {
		t.Fatalf("expected ErrBadRating, got %v", err)
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `{{{`},
		{"missing title", `{"author":"A","timestamp":"2026-08-30T12:00:00Z","reader":"r","rating":3}`},
		{"missing rating", `{"author":"A","title":"T","timestamp":"2026-08-30T12:00:00Z","reader":"r"}`},
		{"rating not a number", `{"author":"A","title":"T","timestamp":"2026-08-30T12:00:00Z","reader":"r","rating":"five"}`},
		{"author wrong type", `{"author":7,"title":"T","timestamp":"2026-08-30T12:00:00Z","reader":"r","rating":3}`},
		{"rating out of range", `{"author":"A","title":"T","timestamp":"2026-08-30T12:00:00Z","reader":"r","rating":42}`},
		{"rating fractional", `{"author":"A","title":"T","timestamp":"2026-08-30T12:00:00Z","reader":"r","rating":4.5}`},
		{"empty title", `{"author":"A","title":"","timestamp":"2026-08-30T12:00:00Z","reader":"r","rating":3}`},
		{"bad timestamp", `{"author":"A","title":"T","timestamp":"yesterday","reader":"r","rating":3}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.payload)); err == nil {
				t.Fatalf("expected error for %s", tc.payload)
			}
		})
	}
}

func TestDecodeEpochTimestamp(t *testing.T) {
	payload := `{"author":"A","title":"T","timestamp":"1767100000","reader":"r","rating":3}`
	ev, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Timestamp.Unix() != 1767100000 {
		t.Fatalf("unexpected timestamp: %v", ev.Timestamp)
	}
}
