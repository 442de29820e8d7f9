package segment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var header = []string{"id", "time_stamp", "pm2.5_atm_a", "pm2.5_atm_b"}

func TestNameAndParseName(t *testing.T) {
	name := Name(5, 1700000000, 1700003600)
	assert.Equal(t, "sensor-5-1700000000-1700003600.csv", name)

	id, start, end, err := ParseName(name)
	require.NoError(t, err)
	assert.Equal(t, 5, id)
	assert.Equal(t, int64(1700000000), start)
	assert.Equal(t, int64(1700003600), end)

	// short timestamps are padded so lexical order stays chronological
	assert.Equal(t, "sensor-1-0000000900-0000001000.csv", Name(1, 900, 1000))
	assert.Less(t, Name(1, 900, 1000), Name(1, 1000, 2000))
}

func TestParseNameRejects(t *testing.T) {
	for _, name := range []string{
		"sensor-5-1-2.txt",
		"sensor-x-1-2.csv",
		"notes.csv",
		"sensor-5-20-10.csv",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := ParseName(name)
			assert.Error(t, err)
		})
	}
}

func TestCoverageOfNewSensor(t *testing.T) {
	s := NewStore(t.TempDir(), fixedClock)

	cov, err := s.CoverageOf(42)
	require.NoError(t, err)
	assert.Equal(t, schema.Coverage{Start: fixedNow.Unix(), End: fixedNow.Unix()}, cov)

	_, ok, err := s.Extent(42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCoverageOfUsesOuterBounds(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "sensor-7")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{
		"sensor-7-1700001000-1700002000.csv",
		"sensor-7-1699990000-1699995000.csv",
		"sensor-7-1700005000-1700009000.csv",
		"readme.txt",
		"sensor-8-1600000000-1800000000.csv",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("id,time_stamp\n"), 0o644))
	}

	s := NewStore(root, fixedClock)
	cov, err := s.CoverageOf(7)
	require.NoError(t, err)
	assert.Equal(t, schema.Coverage{Start: 1699990000, End: 1700009000}, cov)

	segments, err := s.Segments(7)
	require.NoError(t, err)
	require.Len(t, segments, 3)
	assert.Equal(t, int64(1699990000), segments[0].Start)
	assert.Equal(t, int64(1700005000), segments[2].Start)
}

func TestWriteSegment(t *testing.T) {
	s := NewStore(t.TempDir(), fixedClock)
	rows := []schema.Row{
		{"5", "1700000000", "1.00", "2.00"},
		{"5", "1700000120", "3.50", "4.25"},
		{"5", "1700000240", "5.00", "6.00"},
	}

	seg, err := s.WriteSegment(5, header, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), seg.Start)
	assert.Equal(t, int64(1700000240), seg.End)
	assert.Equal(t, "sensor-5-1700000000-1700000240.csv", filepath.Base(seg.Path))

	gotHeader, gotRows, err := s.ReadSegment(seg)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	assert.Equal(t, rows, gotRows)

	cov, err := s.CoverageOf(5)
	require.NoError(t, err)
	assert.Equal(t, schema.Coverage{Start: 1700000000, End: 1700000240}, cov)
}

func TestWriteSegmentEmpty(t *testing.T) {
	s := NewStore(t.TempDir(), fixedClock)
	_, err := s.WriteSegment(5, header, nil)
	assert.ErrorIs(t, err, contract.ErrEmptyResult)

	// nothing is created for an empty result
	_, statErr := os.Stat(s.SensorDir(5))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteSegmentNeverOverwrites(t *testing.T) {
	s := NewStore(t.TempDir(), fixedClock)
	rows := []schema.Row{{"5", "100", "1.00", "1.00"}}

	_, err := s.WriteSegment(5, header, rows)
	require.NoError(t, err)
	_, err = s.WriteSegment(5, header, []schema.Row{{"5", "100", "9.00", "9.00"}})
	assert.Error(t, err)

	segments, err := s.Segments(5)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	_, got, err := s.ReadSegment(segments[0])
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteSegmentRejectsBadRows(t *testing.T) {
	s := NewStore(t.TempDir(), fixedClock)

	tests := []struct {
		name string
		rows []schema.Row
	}{
		{"descending", []schema.Row{{"5", "200", "1", "1"}, {"5", "100", "1", "1"}}},
		{"bad time stamp", []schema.Row{{"5", "soon", "1", "1"}}},
		{"short row", []schema.Row{{"5", "100", "1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.WriteSegment(5, header, tt.rows)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, contract.ErrEmptyResult)
		})
	}
}

func TestWriteSegmentIOError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blocked")
	// a regular file where the data directory should be
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	s := NewStore(root, fixedClock)
	_, err := s.WriteSegment(5, header, []schema.Row{{"5", "100", "1", "1"}})
	assert.Error(t, err)
}

func TestOuter(t *testing.T) {
	_, ok := Outer(nil)
	assert.False(t, ok)

	cov, ok := Outer([]schema.Segment{
		{SensorID: 1, Start: 500, End: 900},
		{SensorID: 1, Start: 100, End: 300},
		{SensorID: 1, Start: 400, End: 1200},
	})
	require.True(t, ok)
	assert.Equal(t, schema.Coverage{Start: 100, End: 1200}, cov)

	single, ok := Outer([]schema.Segment{{SensorID: 2, Start: 7, End: 7}})
	require.True(t, ok)
	assert.Equal(t, schema.Coverage{Start: 7, End: 7}, single)
}
