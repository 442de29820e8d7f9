package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/internal/registry"
	"github.com/huangsam/airseries/internal/segment"
	"github.com/huangsam/airseries/schema"
)

// concentrationPrefix marks fields persisted with two decimals.
const concentrationPrefix = "pm"

// concentrationPlaces is the number of fractional digits kept for concentrations.
const concentrationPlaces = 2

// Ingester runs fetch passes over the sensor fleet.
type Ingester struct {
	Client    contract.HistoryClient
	Segments  *segment.Store
	Pacer     *contract.Pacer
	Fields    []string
	Freshness time.Duration
	Now       contract.Clock
	Logger    *slog.Logger
}

// IngestSensors runs one pass over the sensors in order. Every sensor gets a
// backward fetch; a forward fetch follows only when the sensor's newest data is
// older than the freshness threshold. A failing sensor is logged, the pass waits
// out the failure cooldown and moves on.
//
// The returned bounds hold the outer range of every sensor's segments after the
// pass and are meant to be merged into the registry. Only context cancellation
// aborts the pass.
func (in *Ingester) IngestSensors(ctx context.Context, sensors []schema.Sensor) (schema.IngestResult, registry.Bounds, error) {
	result := schema.IngestResult{PassID: uuid.NewString(), Sensors: len(sensors)}
	bounds := registry.Bounds{}
	logger := in.logger().With(slog.String("pass", result.PassID))
	header := SegmentHeader(in.Fields)

	for _, sensor := range sensors {
		if err := ctx.Err(); err != nil {
			return result, bounds, err
		}
		log := logger.With(slog.Int("sensor", sensor.ID))
		log.Info("loading sensor", slog.String("name", sensor.Name))

		written, err := in.ingestSensor(ctx, log, sensor, header, bounds)
		result.Segments = append(result.Segments, written...)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, bounds, ctxErr
		}
		result.Failures++
		log.Error("sensor pass failed", slog.Any("error", err))
		if err := in.Pacer.AfterFailure(ctx); err != nil {
			return result, bounds, err
		}
	}

	logger.Info("pass complete",
		slog.Int("sensors", result.Sensors),
		slog.Int("segments", len(result.Segments)),
		slog.Int("failures", result.Failures))
	return result, bounds, nil
}

// ingestSensor closes the gaps of one sensor and records its segment bounds.
func (in *Ingester) ingestSensor(ctx context.Context, log *slog.Logger, sensor schema.Sensor, header []string, bounds registry.Bounds) ([]schema.Segment, error) {
	extent, hasSegments, err := in.Segments.Extent(sensor.ID)
	if err != nil {
		return nil, err
	}
	if hasSegments {
		bounds.Extend(sensor.ID, extent.Start, extent.End)
	}
	cov, err := in.Segments.CoverageOf(sensor.ID)
	if err != nil {
		return nil, err
	}
	now := in.clock()().Unix()

	var written []schema.Segment

	// Backward: everything up to the oldest captured reading
	log.Debug("fetching backward", slog.Int64("before", cov.Start))
	seg, err := in.fetchAndSave(ctx, log, sensor, header, schema.HistoryQuery{Fields: in.Fields, EndTimestamp: &cov.Start}, cov, hasSegments)
	if err != nil {
		return written, err
	}
	if seg != nil {
		written = append(written, *seg)
		bounds.Extend(sensor.ID, seg.Start, seg.End)
	}
	if err := in.Pacer.AfterRequest(ctx); err != nil {
		return written, err
	}

	// Forward: only when the newest reading is older than the freshness threshold
	if now-cov.End <= int64(in.Freshness/time.Second) {
		log.Debug("skipping forward fetch", slog.Int64("age_seconds", now-cov.End))
		return written, nil
	}
	after := cov.End + 1
	log.Debug("fetching forward", slog.Int64("after", cov.End))
	seg, err = in.fetchAndSave(ctx, log, sensor, header, schema.HistoryQuery{Fields: in.Fields, StartTimestamp: &after}, cov, hasSegments)
	if err != nil {
		return written, err
	}
	if seg != nil {
		written = append(written, *seg)
		bounds.Extend(sensor.ID, seg.Start, seg.End)
	}
	return written, in.Pacer.AfterRequest(ctx)
}

// fetchAndSave issues one history request and persists the rows as a segment.
// It returns a nil segment when the response holds no new rows.
func (in *Ingester) fetchAndSave(ctx context.Context, log *slog.Logger, sensor schema.Sensor, header []string, q schema.HistoryQuery, cov schema.Coverage, hasSegments bool) (*schema.Segment, error) {
	rsp, err := in.Client.FetchHistory(ctx, sensor.ID, q)
	if err != nil {
		return nil, err
	}
	if rsp == nil || len(rsp.Data) == 0 {
		log.Info("no data found")
		return nil, nil
	}

	rows, err := RowsFromResponse(rsp, sensor.ID, in.Fields)
	if err != nil {
		return nil, err
	}
	if hasSegments {
		// Never write a reading that an existing segment already covers
		before := len(rows)
		rows = slices.DeleteFunc(rows, func(r schema.Row) bool {
			ts, _ := strconv.ParseInt(r[1], 10, 64)
			return ts >= cov.Start && ts <= cov.End
		})
		if dropped := before - len(rows); dropped > 0 {
			log.Warn("dropped rows inside existing coverage", slog.Int("rows", dropped))
		}
	}

	seg, err := in.Segments.WriteSegment(sensor.ID, header, rows)
	if errors.Is(err, contract.ErrEmptyResult) {
		log.Info("no records found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info(fmt.Sprintf("saved %d records %s", len(rows), schema.FormatTimeRange(seg.Start, seg.End)))
	return &seg, nil
}

func (in *Ingester) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return in.Logger
}

func (in *Ingester) clock() contract.Clock {
	if in.Now == nil {
		return time.Now
	}
	return in.Now
}

// SegmentHeader returns the segment column order for the requested fields.
func SegmentHeader(fields []string) []string {
	header := make([]string, 0, len(fields)+2)
	header = append(header, schema.SensorIDColumn, schema.TimeStampColumn)
	return append(header, fields...)
}

// RowsFromResponse turns a newest-first history response into time-ascending
// segment rows in SegmentHeader order. Concentration fields are rendered with
// two decimals, JSON nulls become empty cells and every other value passes
// through unchanged. A malformed response yields a *contract.RemoteError.
func RowsFromResponse(rsp *schema.HistoryResponse, sensorID int, fields []string) ([]schema.Row, error) {
	malformed := func(format string, args ...any) error {
		return &contract.RemoteError{SensorID: sensorID, Err: fmt.Errorf(format, args...)}
	}
	if len(rsp.Data) == 0 {
		return nil, nil
	}
	position := make(map[string]int, len(rsp.Fields))
	for i, f := range rsp.Fields {
		position[f] = i
	}
	tsPos, ok := position[schema.TimeStampColumn]
	if !ok {
		return nil, malformed("response has no %s field", schema.TimeStampColumn)
	}
	id := rsp.SensorIndex
	if id == 0 {
		id = sensorID
	}

	rows := make([]schema.Row, 0, len(rsp.Data))
	for n, values := range rsp.Data {
		if tsPos >= len(values) {
			return nil, malformed("record %d has no time stamp", n)
		}
		ts, err := formatValue(schema.TimeStampColumn, values[tsPos])
		if err != nil || ts == "" {
			return nil, malformed("record %d has a bad time stamp %v", n, values[tsPos])
		}
		if _, err := strconv.ParseInt(ts, 10, 64); err != nil {
			return nil, malformed("record %d has a bad time stamp %q", n, ts)
		}

		row := make(schema.Row, 0, len(fields)+2)
		row = append(row, strconv.Itoa(id), ts)
		for _, f := range fields {
			pos, ok := position[f]
			if !ok || pos >= len(values) {
				row = append(row, "")
				continue
			}
			v, err := formatValue(f, values[pos])
			if err != nil {
				return nil, malformed("record %d: %w", n, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	// The remote answers newest first
	slices.Reverse(rows)
	if !slices.IsSortedFunc(rows, compareRowTime) {
		slices.SortStableFunc(rows, compareRowTime)
	}
	return rows, nil
}

func compareRowTime(a, b schema.Row) int {
	ta, _ := strconv.ParseInt(a[1], 10, 64)
	tb, _ := strconv.ParseInt(b[1], 10, 64)
	switch {
	case ta < tb:
		return -1
	case ta > tb:
		return 1
	}
	return 0
}

// formatValue renders one decoded JSON value as a CSV cell.
func formatValue(field string, v any) (string, error) {
	concentration := strings.HasPrefix(field, concentrationPrefix)
	switch val := v.(type) {
	case nil:
		return "", nil
	case json.Number:
		if concentration {
			return fixedString(val.String(), concentrationPlaces)
		}
		return val.String(), nil
	case float64:
		if concentration {
			return fixedFloat(val, concentrationPlaces)
		}
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case string:
		if concentration && val != "" {
			return fixedString(val, concentrationPlaces)
		}
		return val, nil
	default:
		return fmt.Sprint(val), nil
	}
}
