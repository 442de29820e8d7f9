// Package registry loads and persists the list of known sensors.
package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/airseries/schema"
)

// Required registry columns.
const (
	idColumn    = "id"
	nameColumn  = "name"
	startColumn = "start"
	endColumn   = "end"
)

// Registry is an immutable snapshot of the sensor registry file.
type Registry struct {
	columns []string // header order, always including the required columns
	sensors []schema.Sensor
}

// Bounds collects the [start, end] ranges written for each sensor during a pass.
type Bounds map[int]schema.Coverage

// Extend widens the recorded range of a sensor to include [start, end].
func (b Bounds) Extend(sensorID int, start, end int64) {
	cur, ok := b[sensorID]
	if !ok {
		b[sensorID] = schema.Coverage{Start: start, End: end}
		return
	}
	b[sensorID] = schema.Coverage{Start: min(cur.Start, start), End: max(cur.End, end)}
}

// New builds a registry from in-memory sensors.
func New(sensors []schema.Sensor) *Registry {
	r := &Registry{columns: []string{idColumn, nameColumn, startColumn, endColumn}}
	for _, s := range sensors {
		for _, k := range slices.Sorted(maps.Keys(s.Attrs)) {
			if !slices.Contains(r.columns, k) {
				r.columns = append(r.columns, k)
			}
		}
		r.sensors = append(r.sensors, cloneSensor(s))
	}
	return r
}

// Load reads a registry file. The id column is parsed as an integer and the
// start and end columns as UTC times; every other column is kept verbatim.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sensor registry: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sensor registry %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sensor registry %s has no header", path)
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = strings.TrimSpace(col)
	}
	if !slices.Contains(header, idColumn) {
		return nil, fmt.Errorf("sensor registry %s has no %q column", path, idColumn)
	}
	r := &Registry{columns: slices.Clone(header)}
	for _, col := range []string{nameColumn, startColumn, endColumn} {
		if !slices.Contains(r.columns, col) {
			r.columns = append(r.columns, col)
		}
	}

	seen := make(map[int]struct{})
	for line, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		sensor, err := parseSensor(header, rec)
		if err != nil {
			return nil, fmt.Errorf("sensor registry %s line %d: %w", path, line+2, err)
		}
		if _, dup := seen[sensor.ID]; dup {
			return nil, fmt.Errorf("sensor registry %s line %d: duplicate sensor id %d", path, line+2, sensor.ID)
		}
		seen[sensor.ID] = struct{}{}
		r.sensors = append(r.sensors, sensor)
	}
	return r, nil
}

// Sensors returns a copy of the sensors in file order.
func (r *Registry) Sensors() []schema.Sensor {
	out := make([]schema.Sensor, len(r.sensors))
	for i, s := range r.sensors {
		out[i] = cloneSensor(s)
	}
	return out
}

// IDs returns the sensor ids in file order.
func (r *Registry) IDs() []int {
	ids := make([]int, len(r.sensors))
	for i, s := range r.sensors {
		ids[i] = s.ID
	}
	return ids
}

// Lookup returns the sensor with the given id.
func (r *Registry) Lookup(id int) (schema.Sensor, bool) {
	for _, s := range r.sensors {
		if s.ID == id {
			return cloneSensor(s), true
		}
	}
	return schema.Sensor{}, false
}

// Merge returns a new registry whose sensor bounds are extended to cover the
// given ranges. Bounds never shrink and the receiver is left untouched.
// Ranges for sensors missing from the registry are ignored.
func (r *Registry) Merge(bounds Bounds) *Registry {
	next := &Registry{columns: slices.Clone(r.columns), sensors: r.Sensors()}
	for i := range next.sensors {
		s := &next.sensors[i]
		b, ok := bounds[s.ID]
		if !ok {
			continue
		}
		start := time.Unix(b.Start, 0).UTC()
		end := time.Unix(b.End, 0).UTC()
		if s.Start.IsZero() || start.Before(s.Start) {
			s.Start = start
		}
		if s.End.IsZero() || end.After(s.End) {
			s.End = end
		}
	}
	return next
}

// Save rewrites the whole registry file. The file is written next to the
// destination and renamed into place.
func (r *Registry) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sensors-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temporary registry file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	_ = w.Write(r.columns)
	for _, s := range r.sensors {
		_ = w.Write(r.record(s))
	}
	w.Flush()
	if err := errors.Join(w.Error(), tmp.Close()); err != nil {
		return fmt.Errorf("failed to write sensor registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace sensor registry: %w", err)
	}
	return nil
}

func (r *Registry) record(s schema.Sensor) []string {
	rec := make([]string, len(r.columns))
	for i, col := range r.columns {
		switch col {
		case idColumn:
			rec[i] = strconv.Itoa(s.ID)
		case nameColumn:
			rec[i] = s.Name
		case startColumn:
			rec[i] = formatBound(s.Start)
		case endColumn:
			rec[i] = formatBound(s.End)
		default:
			rec[i] = s.Attrs[col]
		}
	}
	return rec
}

func parseSensor(header, rec []string) (schema.Sensor, error) {
	sensor := schema.Sensor{Attrs: make(map[string]string)}
	for i, col := range header {
		var value string
		if i < len(rec) {
			value = rec[i]
		}
		var err error
		switch col {
		case idColumn:
			sensor.ID, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return sensor, fmt.Errorf("invalid sensor id %q", value)
			}
		case nameColumn:
			sensor.Name = value
		case startColumn:
			sensor.Start, err = parseBound(value)
		case endColumn:
			sensor.End, err = parseBound(value)
		default:
			sensor.Attrs[col] = value
		}
		if err != nil {
			return sensor, fmt.Errorf("invalid %s %q: %w", col, value, err)
		}
	}
	return sensor, nil
}

// parseBound accepts the registry time format, RFC3339 or unix seconds.
func parseBound(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(ts, 0).UTC(), nil
	}
	if t, err := time.ParseInLocation(schema.RegistryTimeFormat, value, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.New("expected 2006-01-02T15:04:05, RFC3339 or unix seconds")
	}
	return t.UTC(), nil
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(schema.RegistryTimeFormat)
}

func cloneSensor(s schema.Sensor) schema.Sensor {
	s.Attrs = maps.Clone(s.Attrs)
	return s
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
