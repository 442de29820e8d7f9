package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

func sampleStatus() ([]schema.SensorStatus, schema.IndexStatus) {
	sensors := []schema.SensorStatus{
		{
			Sensor:   schema.Sensor{ID: 5, Name: "Backyard"},
			Segments: 2,
			Coverage: &schema.Coverage{Start: 1700000000, End: 1700000600},
			Index:    &schema.SensorIndexStatus{SensorID: 5, Rows: 42, Segments: 2},
		},
		{Sensor: schema.Sensor{ID: 9}},
	}
	index := schema.IndexStatus{Backend: "sqlite", Connected: true, SchemaVersion: 3, TotalRows: 42}
	return sensors, index
}

func TestWriteStatusTable(t *testing.T) {
	sensors, index := sampleStatus()
	var buf bytes.Buffer
	require.NoError(t, writeStatusTable(&buf, sensors, index, &contract.Config{Width: 120, Location: time.UTC}))

	out := buf.String()
	assert.Contains(t, out, "Backyard (5)")
	assert.Contains(t, out, "(9)")
	assert.Contains(t, out, "2023-11-14T22:13:20Z")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "Index Backend: sqlite")
	assert.Contains(t, out, "Schema Version: 3")
	assert.Contains(t, out, "Total Rows: 42")
}

func TestWriteStatusTableDisconnected(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatusTable(&buf, nil, schema.IndexStatus{Backend: "mysql"}, &contract.Config{Width: 80}))
	assert.Contains(t, buf.String(), "Connected: false")
	assert.NotContains(t, buf.String(), "Schema Version")
}

func TestPrintStatusJSON(t *testing.T) {
	sensors, index := sampleStatus()
	path := filepath.Join(t.TempDir(), "status.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: path}
	require.NoError(t, NewOutWriter().WriteStatus(sensors, index, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc statusDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 3, doc.Index.SchemaVersion)
	require.Len(t, doc.Sensors, 2)
	assert.Equal(t, int64(42), doc.Sensors[0].Index.Rows)
	assert.Nil(t, doc.Sensors[1].Coverage)
}

func TestWriteIngestSummary(t *testing.T) {
	var buf bytes.Buffer
	result := schema.IngestResult{
		PassID:   "abc",
		Sensors:  2,
		Segments: []schema.Segment{{SensorID: 5, Start: 1700000000, End: 1700000600}},
		Failures: 1,
	}
	require.NoError(t, writeIngestSummary(&buf, result))

	out := buf.String()
	assert.Contains(t, out, "sensor 5: 2023-11-14T22:13:20 to 2023-11-14T22:23:20")
	assert.Contains(t, out, "Pass abc: 2 sensors, 1 segments written, 1 failures")
}

func TestWriteIndexSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeIndexSummary(&buf, schema.IndexResult{Indexed: make([]schema.Segment, 3), Inserted: 30, Skipped: 4}))
	assert.Contains(t, buf.String(), "Indexed 3 segments (30 rows), skipped 4 already indexed")
}

func TestFormatUnix(t *testing.T) {
	assert.Equal(t, "-", formatUnix(0, nil))
	assert.Equal(t, "2023-11-14T22:13:20Z", formatUnix(1700000000, nil))
	assert.Equal(t, "2023-11-14T17:13:20-05:00", formatUnix(1700000000, time.FixedZone("EST", -5*60*60)))
}
