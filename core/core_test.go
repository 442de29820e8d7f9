package core

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/internal/registry"
	"github.com/huangsam/airseries/internal/segment"
	"github.com/huangsam/airseries/schema"
)

// newPipelineConfig returns a SQLite-backed config rooted in a temp directory
// with a single registered sensor.
func newPipelineConfig(t *testing.T) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	registryFile := filepath.Join(dir, contract.RegistryFileName)
	require.NoError(t, os.WriteFile(registryFile, []byte("id,name,start,end,site\n7,Backyard,,,north\n"), 0o644))
	return &contract.Config{
		DataDir:      dir,
		RegistryFile: registryFile,
		IndexBackend: schema.SQLiteBackend,
		IndexCheck:   schema.BoundsCheck,
		APIKey:       "test-key",
		Fields:       testFields,
		Freshness:    contract.DefaultFreshness,
		WindowDays:   1,
		ReportMode:   schema.AverageMode,
		Channel:      schema.AtmChannel,
		Location:     time.UTC,
		Output:       schema.CSVOut,
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newPipelineConfig(t)

	bucket := (time.Now().Unix()/600)*600 - 3600
	ts := func(offset int64) json.Number { return json.Number(strconv.FormatInt(bucket+offset, 10)) }

	client := &contract.MockHistoryClient{}
	client.On("FetchHistory", mock.Anything, 7, mock.MatchedBy(func(q schema.HistoryQuery) bool {
		return q.EndTimestamp != nil && q.StartTimestamp == nil
	})).Return(historyResponse(7,
		[]any{ts(120), json.Number("30"), nil, json.Number("45")},
		[]any{ts(60), json.Number("10"), json.Number("20"), json.Number("44")},
	), nil).Once()

	ingested, err := RunIngest(ctx, cfg, client)
	require.NoError(t, err)
	assert.Equal(t, 1, ingested.Sensors)
	assert.Zero(t, ingested.Failures)
	require.Len(t, ingested.Segments, 1)
	assert.Equal(t, bucket+60, ingested.Segments[0].Start)
	assert.Equal(t, bucket+120, ingested.Segments[0].End)
	client.AssertExpectations(t)

	reg, err := registry.Load(cfg.RegistryFile)
	require.NoError(t, err)
	sensor, ok := reg.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, bucket+60, sensor.Start.Unix())
	assert.Equal(t, bucket+120, sensor.End.Unix())
	assert.Equal(t, "north", sensor.Attrs["site"])

	indexed, err := RunIndex(ctx, cfg)
	require.NoError(t, err)
	assert.Len(t, indexed.Indexed, 1)
	assert.Equal(t, int64(2), indexed.Inserted)

	again, err := RunIndex(ctx, cfg)
	require.NoError(t, err)
	assert.Empty(t, again.Indexed)
	assert.Equal(t, 1, again.Skipped)

	report, err := GetReport(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, report.Columns, 1)
	assert.Equal(t, "Backyard (7)", report.Columns[0].Label)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, bucket, report.Rows[0].Bucket.Unix())
	assert.Equal(t, []string{"20.00"}, report.Rows[0].Cells)

	sensors, status, err := GetStatus(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(2), status.TotalRows)
	require.Len(t, sensors, 1)
	assert.Equal(t, 1, sensors[0].Segments)
	require.NotNil(t, sensors[0].Coverage)
	assert.Equal(t, schema.Coverage{Start: bucket + 60, End: bucket + 120}, *sensors[0].Coverage)
	require.NotNil(t, sensors[0].Index)
	assert.Equal(t, int64(2), sensors[0].Index.Rows)
}

func TestRunIngestSavesRegistryOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(WithSuppressHeader(context.Background()))
	cancel()
	cfg := newPipelineConfig(t)

	_, err := RunIngest(ctx, cfg, &contract.MockHistoryClient{})
	require.ErrorIs(t, err, context.Canceled)

	reg, err := registry.Load(cfg.RegistryFile)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, reg.IDs())
}

func TestRunIngestMissingRegistry(t *testing.T) {
	cfg := newPipelineConfig(t)
	cfg.RegistryFile = filepath.Join(cfg.DataDir, "missing.csv")

	_, err := RunIngest(context.Background(), cfg, &contract.MockHistoryClient{})
	assert.ErrorContains(t, err, "failed to open sensor registry")
}

func TestExecuteIngestRequiresAPIKey(t *testing.T) {
	cfg := newPipelineConfig(t)
	cfg.APIKey = ""

	err := ExecuteIngest(context.Background(), cfg)
	assert.ErrorContains(t, err, "API key is required")
}

func TestExecuteExportEmptyIndex(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newPipelineConfig(t)
	_, err := RunIndex(ctx, cfg)
	require.NoError(t, err)

	err = ExecuteExport(ctx, cfg)
	assert.ErrorContains(t, err, "no indexed readings")
}

func TestExecuteStatusWritesJSON(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newPipelineConfig(t)
	_, err := RunIndex(ctx, cfg)
	require.NoError(t, err)
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(cfg.DataDir, "status.json")

	require.NoError(t, ExecuteStatus(ctx, cfg))

	raw, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var doc struct {
		Index   schema.IndexStatus    `json:"index"`
		Sensors []schema.SensorStatus `json:"sensors"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Zero(t, doc.Index.TotalRows)
	require.Len(t, doc.Sensors, 1)
	assert.Equal(t, 7, doc.Sensors[0].Sensor.ID)
	assert.Zero(t, doc.Sensors[0].Segments)
	assert.Nil(t, doc.Sensors[0].Coverage)
}

func TestSensorStatuses(t *testing.T) {
	store := segment.NewStore(t.TempDir(), fixedClock(1700000000))
	header := SegmentHeader(testFields)
	_, err := store.WriteSegment(3, header, []schema.Row{{"3", "100", "1", "2", "3"}, {"3", "200", "1", "2", "3"}})
	require.NoError(t, err)
	_, err = store.WriteSegment(3, header, []schema.Row{{"3", "50", "1", "2", "3"}})
	require.NoError(t, err)

	indexStatus := schema.IndexStatus{Sensors: []schema.SensorIndexStatus{{SensorID: 3, Rows: 3}}}
	checked := time.Unix(1700000000, 0)
	sensors := []schema.Sensor{{ID: 3, Name: "Porch"}, {ID: 9}}

	statuses, _, err := SensorStatuses(sensors, store, indexStatus, checked)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.Equal(t, 2, statuses[0].Segments)
	assert.Equal(t, &schema.Coverage{Start: 50, End: 200}, statuses[0].Coverage)
	assert.Equal(t, int64(3), statuses[0].Index.Rows)

	assert.Zero(t, statuses[1].Segments)
	assert.Nil(t, statuses[1].Coverage)
	assert.Nil(t, statuses[1].Index)
	assert.Equal(t, checked, statuses[1].Checked)
}
