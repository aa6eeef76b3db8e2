// Package chart draws the live "most read books" bar chart and drives
// its periodic refresh.
package chart

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/aggregate"
)

// Renderer accepts a ranking and replaces the previous frame with it.
type Renderer interface {
	Render(entries []aggregate.Entry) error
}

const clearScreen = "\033[H\033[2J"

// Terminal renders the ranking as a horizontal ANSI bar chart. Every
// frame is a full redraw.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	width int
	// Plain suppresses the clear-screen escape, for dumb outputs.
	Plain bool
}

func NewTerminal(out io.Writer, width int) *Terminal {
	if width <= 0 {
		width = 40
	}
	return &Terminal{out: out, width: width}
}

func (t *Terminal) Render(entries []aggregate.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	if !t.Plain {
		b.WriteString(clearScreen)
	}
	b.WriteString("Most Read Books\n\n")

	if len(entries) == 0 {
		b.WriteString("waiting for events...\n")
		_, err := io.WriteString(t.out, b.String())
		return err
	}

	maxCount := entries[0].Count
	for _, e := range entries {
		if e.Count > maxCount {
			maxCount = e.Count
		}
	}

	labelWidth := 0
	for _, e := range entries {
		if len(e.Title) > labelWidth {
			labelWidth = len(e.Title)
		}
	}

	for _, e := range entries {
		barLen := e.Count * t.width / maxCount
		if barLen == 0 && e.Count > 0 {
			barLen = 1
		}
		fmt.Fprintf(&b, "%-*s %s %d (readers: %d, avg rating: %.1f)\n",
			labelWidth, e.Title, strings.Repeat("█", barLen), e.Count, e.Readers, e.AvgRating)
	}

	if _, err := io.WriteString(t.out, b.String()); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
