// Package source supplies reading events to the producer, either
// synthesized from a fixed dataset or read from a backing table.
package source

import (
	"context"
	"errors"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/domain/reading"
)

// ErrExhausted means the source has no more events. For looping
// sources it is never returned.
var ErrExhausted = errors.New("source: exhausted")

// Source is a pull-based, restartable sequence of reading events.
// Next must respect ctx cancellation and must never block forever.
type Source interface {
	Next(ctx context.Context) (reading.Event, error)
}
