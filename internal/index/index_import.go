package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// AlreadyIndexed reports whether a segment range is covered by indexed data.
//
// With the bounds check a segment counts as indexed when it sits inside the
// sensor's global [min, max] indexed time, so a segment filling a gap in the
// middle of that range is skipped. The intervals check requires the segment to
// sit inside one contiguous run of imported segments instead; sensors with rows
// but no segment bookkeeping fall back to the bounds check.
func (s *Store) AlreadyIndexed(ctx context.Context, sensorID int, start, end int64) (bool, error) {
	r, err := s.sensorRanges(ctx, sensorID)
	if err != nil {
		return false, err
	}
	if r.bounds == nil {
		return false, nil
	}
	if s.check == schema.IntervalsCheck && len(r.intervals) > 0 {
		return r.intervals.Contains(start, end), nil
	}
	return r.bounds.Start <= start && end <= r.bounds.End, nil
}

// IndexSegments imports every segment of the given sensors that is not already
// indexed. Segments are visited in ascending file name order and each one is
// imported in its own transaction. Rows are appended unconditionally.
func (s *Store) IndexSegments(ctx context.Context, src contract.SegmentSource, sensorIDs []int) (schema.IndexResult, error) {
	var result schema.IndexResult
	for _, sensorID := range sensorIDs {
		segments, err := src.Segments(sensorID)
		if err != nil {
			return result, err
		}
		for _, seg := range segments {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			done, err := s.AlreadyIndexed(ctx, sensorID, seg.Start, seg.End)
			if err != nil {
				return result, err
			}
			if done {
				result.Skipped++
				continue
			}

			header, rows, err := src.ReadSegment(seg)
			if err != nil {
				return result, err
			}
			n, err := s.importSegment(ctx, seg, header, rows)
			if err != nil {
				return result, fmt.Errorf("failed to index %s: %w", seg.Path, err)
			}
			result.Indexed = append(result.Indexed, seg)
			result.Inserted += n
			s.logger.Info("indexed segment",
				slog.Int("sensor", sensorID),
				slog.Int64("rows", n),
				slog.String("range", schema.FormatTimeRange(seg.Start, seg.End)))
		}
	}
	return result, nil
}

// importSegment inserts the rows of one segment plus its bookkeeping entry in a
// single transaction.
func (s *Store) importSegment(ctx context.Context, seg schema.Segment, header []string, rows []schema.Row) (int64, error) {
	mapping := columnMapping(header)
	if _, ok := mapping[1]; !ok {
		return 0, fmt.Errorf("segment header has no %s column", schema.TimeStampColumn)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	// rows are about to change whatever happens to the transaction
	defer s.ranges.invalidate(seg.SensorID)

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTableName(recordTable, s.backend),
		strings.Join(recordColumns, ", "),
		placeholders(s.backend, len(recordColumns)))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var count int64
	for i, row := range rows {
		args, err := recordArgs(seg.SensorID, mapping, row)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
		count++
	}

	bookkeeping := fmt.Sprintf("INSERT INTO %s (sensor_id, start_ts, end_ts, row_count, indexed_at) VALUES (%s)",
		quoteTableName(segmentTable, s.backend), placeholders(s.backend, 5))
	if _, err := tx.ExecContext(ctx, bookkeeping, seg.SensorID, seg.Start, seg.End, count, formatTime(time.Now(), s.backend)); err != nil {
		return 0, fmt.Errorf("failed to record indexed segment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit segment: %w", err)
	}
	return count, nil
}

// sensorRanges returns the cached ranges of a sensor, loading them on a miss.
func (s *Store) sensorRanges(ctx context.Context, sensorID int) (sensorRanges, error) {
	if r, ok := s.ranges.get(sensorID); ok {
		return r, nil
	}

	var r sensorRanges
	query := fmt.Sprintf("SELECT MIN(time_stamp), MAX(time_stamp) FROM %s WHERE sensor_id = %s",
		quoteTableName(recordTable, s.backend), placeholder(s.backend, 1))
	var minTS, maxTS sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, sensorID).Scan(&minTS, &maxTS); err != nil {
		return r, fmt.Errorf("failed to read indexed range for sensor %d: %w", sensorID, err)
	}
	if minTS.Valid && maxTS.Valid {
		r.bounds = &schema.Coverage{Start: minTS.Int64, End: maxTS.Int64}
	}

	if s.check == schema.IntervalsCheck {
		intervals, err := s.segmentIntervals(ctx, sensorID)
		if err != nil {
			return r, err
		}
		r.intervals = NewIntervalSet(intervals...)
	}

	s.ranges.put(sensorID, r)
	return r, nil
}

func (s *Store) segmentIntervals(ctx context.Context, sensorID int) ([]Interval, error) {
	query := fmt.Sprintf("SELECT start_ts, end_ts FROM %s WHERE sensor_id = %s ORDER BY start_ts",
		quoteTableName(segmentTable, s.backend), placeholder(s.backend, 1))
	rows, err := s.db.QueryContext(ctx, query, sensorID)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexed segments for sensor %d: %w", sensorID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Interval
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("failed to scan indexed segment: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// columnMapping maps a record column position to the segment column holding it.
// Segment columns are matched by name with dots removed, so "pm2.5_atm_a"
// fills pm25_atm_a. Unknown segment columns are ignored.
func columnMapping(header []string) map[int]int {
	mapping := make(map[int]int)
	for i, name := range header {
		name = strings.ReplaceAll(strings.TrimSpace(name), ".", "")
		if name == schema.SensorIDColumn {
			continue // the file name decides the sensor
		}
		if pos := slices.Index(recordColumns, name); pos > 0 {
			mapping[pos] = i
		}
	}
	return mapping
}

// recordArgs builds the insert arguments for one segment row.
func recordArgs(sensorID int, mapping map[int]int, row schema.Row) ([]any, error) {
	args := make([]any, len(recordColumns))
	args[0] = sensorID
	for pos := 1; pos < len(recordColumns); pos++ {
		idx, ok := mapping[pos]
		if !ok || idx >= len(row) {
			continue // NULL
		}
		value := strings.TrimSpace(row[idx])
		if value == "" {
			continue
		}
		if pos == 1 {
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad %s %q", schema.TimeStampColumn, value)
			}
			args[pos] = ts
			continue
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("bad %s %q", recordColumns[pos], value)
		}
		args[pos] = f
	}
	if args[1] == nil {
		return nil, errors.New("missing time stamp")
	}
	return args, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t.UTC()
	}
}
