// Package segment manages the immutable per-sensor CSV segment files on disk.
package segment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// namePattern matches "sensor-<id>-<start>-<end>.csv".
var namePattern = regexp.MustCompile(`^sensor-(\d+)-(\d+)-(\d+)\.csv$`)

// Name returns the file name for a segment. Timestamps are zero-padded to ten
// digits so that lexical order equals chronological order.
func Name(sensorID int, start, end int64) string {
	return fmt.Sprintf("sensor-%d-%010d-%010d.csv", sensorID, start, end)
}

// ParseName extracts the sensor id and time range embedded in a segment file name.
func ParseName(name string) (sensorID int, start, end int64, err error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("not a segment file name: %q", name)
	}
	sensorID, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad sensor id in %q: %w", name, err)
	}
	if start, err = strconv.ParseInt(m[2], 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("bad start in %q: %w", name, err)
	}
	if end, err = strconv.ParseInt(m[3], 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("bad end in %q: %w", name, err)
	}
	if end < start {
		return 0, 0, 0, fmt.Errorf("segment %q ends before it starts", name)
	}
	return sensorID, start, end, nil
}

// Store reads and writes segment files below a data directory.
type Store struct {
	root string
	now  contract.Clock
}

var _ contract.SegmentSource = &Store{} // Compile-time check

// NewStore returns a Store rooted at dataDir. A nil clock means time.Now.
func NewStore(dataDir string, now contract.Clock) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{root: dataDir, now: now}
}

// Root returns the data directory of the store.
func (s *Store) Root() string {
	return s.root
}

// SensorDir returns the directory holding a sensor's segments.
func (s *Store) SensorDir(sensorID int) string {
	return filepath.Join(s.root, fmt.Sprintf("sensor-%d", sensorID))
}

// Segments returns the segments of a sensor in ascending file name order.
// Files that do not follow the naming scheme, or belong to another sensor, are ignored.
func (s *Store) Segments(sensorID int) ([]schema.Segment, error) {
	dir := s.SensorDir(sensorID)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list segments in %s: %w", dir, err)
	}

	// os.ReadDir already sorts by file name
	var segments []schema.Segment
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, start, end, err := ParseName(entry.Name())
		if err != nil || id != sensorID {
			continue
		}
		segments = append(segments, schema.Segment{
			SensorID: sensorID,
			Start:    start,
			End:      end,
			Path:     filepath.Join(dir, entry.Name()),
		})
	}
	return segments, nil
}

// Extent returns the min start and max end across a sensor's segments.
// The boolean is false when the sensor has no segments yet.
func (s *Store) Extent(sensorID int) (schema.Coverage, bool, error) {
	segments, err := s.Segments(sensorID)
	if err != nil {
		return schema.Coverage{}, false, err
	}
	cov, ok := Outer(segments)
	return cov, ok, nil
}

// Outer returns the min start and max end of the given segments.
// The boolean is false when there are none.
func Outer(segments []schema.Segment) (schema.Coverage, bool) {
	if len(segments) == 0 {
		return schema.Coverage{}, false
	}
	cov := schema.Coverage{Start: segments[0].Start, End: segments[0].End}
	for _, seg := range segments[1:] {
		cov.Start = min(cov.Start, seg.Start)
		cov.End = max(cov.End, seg.End)
	}
	return cov, true
}

// CoverageOf returns the time range already captured for a sensor. A sensor
// without segments is treated as caught up to the present: {now, now}.
func (s *Store) CoverageOf(sensorID int) (schema.Coverage, error) {
	cov, ok, err := s.Extent(sensorID)
	if err != nil {
		return schema.Coverage{}, err
	}
	if !ok {
		now := s.now().Unix()
		return schema.Coverage{Start: now, End: now}, nil
	}
	return cov, nil
}

// WriteSegment persists time-ascending rows as a new segment file. The second
// column of every row must hold the unix-second time stamp.
func (s *Store) WriteSegment(sensorID int, header []string, rows []schema.Row) (schema.Segment, error) {
	if len(rows) == 0 {
		return schema.Segment{}, contract.ErrEmptyResult
	}
	start, err := rowTime(rows[0])
	if err != nil {
		return schema.Segment{}, err
	}
	end, err := rowTime(rows[len(rows)-1])
	if err != nil {
		return schema.Segment{}, err
	}
	if end < start {
		return schema.Segment{}, fmt.Errorf("rows for sensor %d are not in ascending time order", sensorID)
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return schema.Segment{}, fmt.Errorf("row %d has %d columns, header has %d", i, len(row), len(header))
		}
	}

	dir := s.SensorDir(sensorID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return schema.Segment{}, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, Name(sensorID, start, end))
	// Segments are immutable: never overwrite an existing file
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return schema.Segment{}, fmt.Errorf("failed to create segment %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	_ = w.Write(header)
	for _, row := range rows {
		_ = w.Write(row)
	}
	w.Flush()
	err = errors.Join(w.Error(), f.Close())
	if err != nil {
		_ = os.Remove(path)
		return schema.Segment{}, fmt.Errorf("failed to write segment %s: %w", path, err)
	}

	return schema.Segment{SensorID: sensorID, Start: start, End: end, Path: path}, nil
}

// ReadSegment returns the header and rows of a segment file.
func (s *Store) ReadSegment(seg schema.Segment) ([]string, []schema.Row, error) {
	f, err := os.Open(seg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open segment %s: %w", seg.Path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse segment %s: %w", seg.Path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("segment %s has no header", seg.Path)
	}
	header := records[0]
	if !slices.Contains(header, schema.TimeStampColumn) {
		return nil, nil, fmt.Errorf("segment %s has no %s column", seg.Path, schema.TimeStampColumn)
	}
	rows := make([]schema.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, schema.Row(rec))
	}
	return header, rows, nil
}

func rowTime(row schema.Row) (int64, error) {
	if len(row) < 2 {
		return 0, fmt.Errorf("row has no time stamp column: %v", []string(row))
	}
	ts, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad time stamp %q: %w", row[1], err)
	}
	return ts, nil
}
