// Package history archives live samples in DuckDB so demo mode can
// serve historical range queries without a gateway.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/sirupsen/logrus"

	"github.com/factory-dashboard/backend/internal/feed"
	"github.com/factory-dashboard/backend/internal/models"
)

// flushThreshold is how many buffered samples trigger a batch write.
const flushThreshold = 512

// Archive is a DuckDB-backed sample log. The poller feeds it on every
// tick; range queries come back in the same shape as the gateway's
// historical feed, so it satisfies feed.HistoricalSource.
type Archive struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
	buffer []feed.Reading
	log    *logrus.Entry
}

// Open creates or opens the archive database under dir.
func Open(dir string, log *logrus.Logger) (*Archive, error) {
	if log == nil {
		log = logrus.New()
	}
	dbPath := filepath.Join(dir, "samples.duckdb")

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating duckdb connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS samples (
			tag_id  VARCHAR NOT NULL,
			ts      BIGINT NOT NULL,
			value   DOUBLE,
			quality VARCHAR NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating samples table: %w", err)
	}

	return &Archive{
		db:     db,
		dbPath: dbPath,
		buffer: make([]feed.Reading, 0, flushThreshold),
		log:    log.WithField("component", "archive"),
	}, nil
}

// Record buffers a batch of readings, flushing when the buffer fills.
// Non-numeric values are stored as NULL; the reading itself is kept so
// quality history survives.
func (a *Archive) Record(readings []feed.Reading) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buffer = append(a.buffer, readings...)
	if len(a.buffer) >= flushThreshold {
		if err := a.flushLocked(); err != nil {
			a.log.WithError(err).Warn("archive flush failed")
		}
	}
}

// Flush writes any buffered samples immediately.
func (a *Archive) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flushLocked()
}

// flushLocked appends the buffer through DuckDB's native appender.
// Callers hold a.mu.
func (a *Archive) flushLocked() error {
	if len(a.buffer) == 0 {
		return nil
	}

	conn, err := a.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection type")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "samples")
		if err != nil {
			return fmt.Errorf("creating appender: %w", err)
		}
		defer appender.Close()

		for _, r := range a.buffer {
			var value interface{}
			if v, ok := r.Sample().NumericValue(); ok {
				value = v
			}
			if err := appender.AppendRow(
				r.TagID.String(),
				r.Timestamp.UnixMilli(),
				value,
				string(r.Quality),
			); err != nil {
				return fmt.Errorf("appending sample: %w", err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return err
	}

	a.buffer = a.buffer[:0]
	return nil
}

// QueryRange returns the archived samples for the tags inside
// [start, end], ordered ascending by timestamp.
func (a *Archive) QueryRange(ctx context.Context, tagIDs []models.TagID, start, end time.Time) ([]feed.Reading, error) {
	if err := a.Flush(); err != nil {
		return nil, err
	}

	if len(tagIDs) == 0 {
		return []feed.Reading{}, nil
	}

	placeholders := ""
	args := make([]interface{}, 0, len(tagIDs)+2)
	for i, id := range tagIDs {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, models.NormalizeTagID(id).String())
	}
	args = append(args, start.UnixMilli(), end.UnixMilli())

	query := fmt.Sprintf(`
		SELECT tag_id, ts, value, quality
		FROM samples
		WHERE tag_id IN (%s) AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`, placeholders)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close()

	var out []feed.Reading
	for rows.Next() {
		var (
			tagID   string
			ts      int64
			value   sql.NullFloat64
			quality string
		)
		if err := rows.Scan(&tagID, &ts, &value, &quality); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		r := feed.Reading{
			TagID:     models.TagID(tagID),
			Quality:   models.ParseQuality(quality),
			Timestamp: time.UnixMilli(ts),
		}
		if value.Valid {
			r.Value = value.Float64
		} else {
			r.Value = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FetchHistory adapts QueryRange to the feed.HistoricalSource
// contract. The archive is always immediately consistent, so pending
// is never reported.
func (a *Archive) FetchHistory(ctx context.Context, tagIDs []models.TagID, start, end time.Time) ([]feed.Reading, bool, error) {
	readings, err := a.QueryRange(ctx, tagIDs, start, end)
	return readings, false, err
}

// Close flushes and closes the database.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.flushLocked(); err != nil {
		a.log.WithError(err).Warn("final archive flush failed")
	}
	return a.db.Close()
}
