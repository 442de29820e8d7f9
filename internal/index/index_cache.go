package index

import (
	"slices"
	"sync"

	"github.com/huangsam/airseries/schema"
)

// Interval is a closed [Start, End] range of unix seconds.
type Interval struct {
	Start, End int64
}

// IntervalSet is a sorted list of disjoint intervals.
type IntervalSet []Interval

// NewIntervalSet merges arbitrary intervals into a sorted disjoint set.
// Intervals that overlap or touch on consecutive seconds are joined.
func NewIntervalSet(intervals ...Interval) IntervalSet {
	sorted := slices.Clone(intervals)
	slices.SortFunc(sorted, func(a, b Interval) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})

	var set IntervalSet
	for _, iv := range sorted {
		if n := len(set); n > 0 && iv.Start <= set[n-1].End+1 {
			set[n-1].End = max(set[n-1].End, iv.End)
			continue
		}
		set = append(set, iv)
	}
	return set
}

// Contains reports whether [start, end] lies inside a single interval.
func (set IntervalSet) Contains(start, end int64) bool {
	i, _ := slices.BinarySearchFunc(set, start, func(iv Interval, t int64) int {
		switch {
		case iv.End < t:
			return -1
		case iv.Start > t:
			return 1
		}
		return 0
	})
	return i < len(set) && set[i].Start <= start && end <= set[i].End
}

// sensorRanges is what is known about one sensor's indexed data.
type sensorRanges struct {
	bounds    *schema.Coverage // nil when nothing is indexed
	intervals IntervalSet      // from indexed_segment, used by the strict check
}

// rangeCache memoizes sensorRanges per sensor until rows are inserted for it.
type rangeCache struct {
	mu      sync.Mutex
	sensors map[int]sensorRanges
}

func newRangeCache() *rangeCache {
	return &rangeCache{sensors: make(map[int]sensorRanges)}
}

func (c *rangeCache) get(sensorID int) (sensorRanges, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.sensors[sensorID]
	return r, ok
}

func (c *rangeCache) put(sensorID int, r sensorRanges) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sensors[sensorID] = r
}

// invalidate drops the cached ranges of a sensor.
func (c *rangeCache) invalidate(sensorID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sensors, sensorID)
}

// reset drops every cached entry.
func (c *rangeCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.sensors)
}
