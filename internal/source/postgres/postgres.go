// Package postgres reads the reading-event dataset from a readings
// table, batch by batch, with a cursor that wraps around in looping
// mode.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ajhatfield/buzzline-06-hatfield/internal/domain/reading"
	"github.com/ajhatfield/buzzline-06-hatfield/internal/source"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

const batchSize = 100

// Source walks the readings table in id order. In looping mode the
// cursor resets to the start of the table once the last row is served.
type Source struct {
	pool   *pgxpool.Pool
	loop   bool
	lastID int64
	buf    []reading.Event
}

func NewSource(pool *pgxpool.Pool, loop bool) *Source {
	return &Source{pool: pool, loop: loop}
}

func (s *Source) Next(ctx context.Context) (reading.Event, error) {
	for {
		if len(s.buf) > 0 {
			ev := s.buf[0]
			s.buf = s.buf[1:]
			return ev, nil
		}

		n, err := s.fetch(ctx)
		if err != nil {
			return reading.Event{}, err
		}
		if n == 0 {
			if !s.loop || s.lastID == 0 {
				return reading.Event{}, source.ErrExhausted
			}
			s.lastID = 0 // wrap to the start of the table
		}
	}
}

func (s *Source) fetch(ctx context.Context) (int, error) {
	const sql = `
		SELECT id, author, title, read_at, reader, rating
		FROM readings
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, sql, s.lastID, batchSize)
	if err != nil {
		return 0, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			id     int64
			ev     reading.Event
			readAt time.Time
		)
		if err := rows.Scan(&id, &ev.Author, &ev.Title, &readAt, &ev.Reader, &ev.Rating); err != nil {
			return n, fmt.Errorf("scan reading row: %w", err)
		}
		s.lastID = id
		n++
		ev.Timestamp = readAt.UTC()
		if err := ev.Validate(); err != nil {
			slog.Warn("skipping malformed readings row", "id", id, "error", err)
			continue
		}
		s.buf = append(s.buf, ev)
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("iterate readings: %w", err)
	}
	return n, nil
}
