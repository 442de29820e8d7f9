package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/huangsam/airseries/schema"
)

// Readings returns the rows of one channel pair with time_stamp strictly after
// since, ordered by time then sensor.
func (s *Store) Readings(ctx context.Context, ch schema.Channel, since time.Time) ([]schema.Reading, error) {
	colA, colB := ch.Columns()
	query := fmt.Sprintf(
		"SELECT sensor_id, time_stamp, %s, %s FROM %s WHERE time_stamp > %s ORDER BY time_stamp, sensor_id",
		colA, colB, quoteTableName(recordTable, s.backend), placeholder(s.backend, 1))

	rows, err := s.db.QueryContext(ctx, query, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.Reading
	for rows.Next() {
		var r schema.Reading
		var a, b sql.NullFloat64
		if err := rows.Scan(&r.SensorID, &r.TimeStamp, &a, &b); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		r.ChannelA = floatPtr(a)
		r.ChannelB = floatPtr(b)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating readings: %w", err)
	}
	return out, nil
}

// AllReadings returns every indexed row ordered by sensor and time.
func (s *Store) AllReadings(ctx context.Context) ([]schema.IndexedRecord, error) {
	query := fmt.Sprintf(`
		SELECT sensor_id, time_stamp, pm25_alt_a, pm25_alt_b, pm25_atm_a, pm25_atm_b,
		       pm25_cf_1_a, pm25_cf_1_b, temperature, humidity, pressure
		FROM %s
		ORDER BY sensor_id, time_stamp
	`, quoteTableName(recordTable, s.backend))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.IndexedRecord
	for rows.Next() {
		var rec schema.IndexedRecord
		var vals [9]sql.NullFloat64
		if err := rows.Scan(&rec.SensorID, &rec.TimeStamp,
			&vals[0], &vals[1], &vals[2], &vals[3], &vals[4],
			&vals[5], &vals[6], &vals[7], &vals[8]); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.PM25AltA = floatPtr(vals[0])
		rec.PM25AltB = floatPtr(vals[1])
		rec.PM25AtmA = floatPtr(vals[2])
		rec.PM25AtmB = floatPtr(vals[3])
		rec.PM25CF1A = floatPtr(vals[4])
		rec.PM25CF1B = floatPtr(vals[5])
		rec.Temperature = floatPtr(vals[6])
		rec.Humidity = floatPtr(vals[7])
		rec.Pressure = floatPtr(vals[8])
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return out, nil
}

// Status returns status information about the index store.
func (s *Store) Status(ctx context.Context) (schema.IndexStatus, error) {
	status := schema.IndexStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.db == nil {
		return status, nil
	}

	version, err := s.SchemaVersion()
	if err != nil {
		return status, err
	}
	status.SchemaVersion = version
	if version == 0 {
		return status, nil // no tables yet
	}

	query := fmt.Sprintf(
		"SELECT sensor_id, COUNT(*), MIN(time_stamp), MAX(time_stamp) FROM %s GROUP BY sensor_id ORDER BY sensor_id",
		quoteTableName(recordTable, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return status, fmt.Errorf("failed to summarize records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var st schema.SensorIndexStatus
		if err := rows.Scan(&st.SensorID, &st.Rows, &st.MinTime, &st.MaxTime); err != nil {
			return status, fmt.Errorf("failed to scan record summary: %w", err)
		}
		status.TotalRows += st.Rows
		status.Sensors = append(status.Sensors, st)
	}
	if err := rows.Err(); err != nil {
		return status, fmt.Errorf("error iterating record summary: %w", err)
	}

	counts, err := s.segmentCounts(ctx)
	if err != nil {
		return status, err
	}
	for i := range status.Sensors {
		status.Sensors[i].Segments = counts[status.Sensors[i].SensorID]
	}
	return status, nil
}

// segmentCounts returns the number of imported segments per sensor. Stores
// migrated below the bookkeeping table report no segments.
func (s *Store) segmentCounts(ctx context.Context) (map[int]int64, error) {
	counts := make(map[int]int64)
	version, err := s.SchemaVersion()
	if err != nil || version < 3 {
		return counts, err
	}
	query := fmt.Sprintf("SELECT sensor_id, COUNT(*) FROM %s GROUP BY sensor_id",
		quoteTableName(segmentTable, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count indexed segments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id int
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan segment count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
