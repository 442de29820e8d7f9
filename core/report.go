package core

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/huangsam/airseries/internal/aqi"
	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// averagePlaces is the number of fractional digits in an average cell.
const averagePlaces = 2

// secondsPerDay converts the report window to seconds.
const secondsPerDay = 86400

// ReadingSource is the part of the index store the aggregator needs.
type ReadingSource interface {
	Readings(ctx context.Context, ch schema.Channel, since time.Time) ([]schema.Reading, error)
}

var _ ReadingSource = contract.IndexStore(nil) // Compile-time check

// ReportOptions controls how a report is derived from indexed readings.
type ReportOptions struct {
	Mode       schema.ReportMode
	Channel    schema.Channel
	WindowDays int
	Location   *time.Location
	Now        contract.Clock
}

// bucketSamples holds the raw channel samples of each sensor inside one bucket.
type bucketSamples map[int][]float64

// BuildReport downsamples the readings of the last WindowDays into 10-minute
// buckets. Each cell averages every non-null A and B sample a sensor reported
// in the bucket, rendered either as a two-decimal average or as an AQI value.
// Columns follow ascending sensor id; sensors without a registry entry are
// labeled by id only.
func BuildReport(ctx context.Context, src ReadingSource, sensors []schema.Sensor, opts ReportOptions) (schema.Report, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	mode := opts.Mode
	if mode == "" {
		mode = schema.AQIMode
	}
	channel := opts.Channel
	if channel == "" {
		channel = schema.AtmChannel
	}

	generated := now()
	since := time.Unix(generated.Unix()-int64(opts.WindowDays)*secondsPerDay, 0)
	readings, err := src.Readings(ctx, channel, since)
	if err != nil {
		return schema.Report{}, fmt.Errorf("failed to read indexed rows: %w", err)
	}

	buckets := map[int64]bucketSamples{}
	seen := map[int]struct{}{}
	for _, r := range readings {
		key := schema.BucketOf(r.TimeStamp).Unix()
		samples, ok := buckets[key]
		if !ok {
			samples = bucketSamples{}
			buckets[key] = samples
		}
		seen[r.SensorID] = struct{}{}
		for _, v := range []*float64{r.ChannelA, r.ChannelB} {
			if v != nil {
				samples[r.SensorID] = append(samples[r.SensorID], *v)
			}
		}
	}

	names := make(map[int]string, len(sensors))
	for _, s := range sensors {
		names[s.ID] = s.Name
	}
	ids := slices.Sorted(maps.Keys(seen))
	report := schema.Report{
		Mode:        mode,
		Channel:     channel,
		WindowDays:  opts.WindowDays,
		GeneratedAt: generated.In(loc),
		Columns:     make([]schema.ReportColumn, 0, len(ids)),
		Rows:        make([]schema.ReportRow, 0, len(buckets)),
	}
	for _, id := range ids {
		report.Columns = append(report.Columns, schema.ReportColumn{SensorID: id, Label: schema.SensorLabel(names[id], id)})
	}

	for _, key := range slices.Sorted(maps.Keys(buckets)) {
		samples := buckets[key]
		row := schema.ReportRow{Bucket: time.Unix(key, 0).In(loc), Cells: make([]string, 0, len(ids))}
		for _, id := range ids {
			cell, err := renderCell(mode, samples[id])
			if err != nil {
				return schema.Report{}, fmt.Errorf("sensor %d at %s: %w", id, row.Bucket.Format(time.RFC3339), err)
			}
			row.Cells = append(row.Cells, cell)
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// renderCell turns the samples of one sensor in one bucket into a report cell.
func renderCell(mode schema.ReportMode, samples []float64) (string, error) {
	if len(samples) == 0 {
		return schema.MissingCell, nil
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	avg := sum / float64(len(samples))
	if mode == schema.AverageMode {
		return fixedFloat(avg, averagePlaces)
	}
	return aqi.FromConcentration(avg), nil
}
