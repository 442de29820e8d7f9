// Package main provides a performance benchmarking tool for the airseries CLI.
// It generates synthetic data directories of increasing size, then measures
// how long indexing and reporting take. The first index run of each size is
// cold (every segment imported) and later runs are warm (every segment skipped).
// Results are written as CSV for performance analysis and documentation.
//
// Prerequisites:
// - airseries binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic data directories are created
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/airseries/internal/segment"
	"github.com/huangsam/airseries/schema"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset  string
	Command  string
	Rows     int
	ColdTime string
	WarmTime string
}

// Dataset describes one synthetic data directory.
type Dataset struct {
	Name    string
	Sensors int
	Days    int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir  string
	Timeout  time.Duration
	Runs     int
	Datasets []Dataset
}

// readingInterval is the spacing of synthetic readings.
const readingInterval = 120

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir: os.Args[1],
		Timeout: 5 * time.Minute,
		Runs:    4,
		Datasets: []Dataset{
			{Name: "small", Sensors: 2, Days: 7},
			{Name: "medium", Sensors: 10, Days: 30},
			{Name: "large", Sensors: 40, Days: 90},
		},
	}

	if _, err := exec.LookPath("airseries"); err != nil {
		fmt.Printf("Prerequisites check failed: airseries binary not found in PATH\n")
		os.Exit(1)
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks generates every dataset and times the index and report commands on it.
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d runs\n",
		len(config.Datasets), config.Timeout, config.Runs)

	now := time.Now().Unix()
	for _, ds := range config.Datasets {
		dataDir := filepath.Join(config.WorkDir, "airseries-"+ds.Name)
		if err := os.RemoveAll(dataDir); err != nil {
			return nil, err
		}
		rows, err := generateDataset(dataDir, ds, now)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", ds.Name, err)
		}
		fmt.Printf("Benchmarking %s (%d sensors, %d days, %d rows)\n", ds.Name, ds.Sensors, ds.Days, rows)

		windowDays := strconv.Itoa(ds.Days)
		results = append(results,
			runBenchmarkSuite(config, ds, rows, dataDir, "index", "Indexing completed in"),
			runBenchmarkSuite(config, ds, rows, dataDir, "report", "Report completed in",
				"--window-days", windowDays, "--output-file", filepath.Join(dataDir, "bench.csv")),
		)
	}
	return results, nil
}

// generateDataset writes a registry and one segment per sensor-day ending at now.
func generateDataset(dataDir string, ds Dataset, now int64) (int, error) {
	var registry strings.Builder
	registry.WriteString("id,name,start,end\n")
	store := segment.NewStore(dataDir, nil)
	header := []string{schema.SensorIDColumn, schema.TimeStampColumn, "pm2.5_atm_a", "pm2.5_atm_b"}

	total := 0
	for s := range ds.Sensors {
		id := 1000 + s
		fmt.Fprintf(&registry, "%d,Sensor %d,,\n", id, s)
		for day := ds.Days; day > 0; day-- {
			start := now - int64(day)*86400
			var rows []schema.Row
			for ts := start; ts < start+86400; ts += readingInterval {
				value := 12 + 8*math.Sin(float64(ts)/7200+float64(s))
				rows = append(rows, schema.Row{
					strconv.Itoa(id),
					strconv.FormatInt(ts, 10),
					strconv.FormatFloat(value, 'f', 2, 64),
					strconv.FormatFloat(value*1.05, 'f', 2, 64),
				})
			}
			if _, err := store.WriteSegment(id, header, rows); err != nil {
				return total, err
			}
			total += len(rows)
		}
	}
	return total, os.WriteFile(filepath.Join(dataDir, "sensors.csv"), []byte(registry.String()), 0o644)
}

// runBenchmarkSuite runs a command config.Runs times and reports cold and warm timings.
func runBenchmarkSuite(config BenchmarkConfig, ds Dataset, rows int, dataDir, command, completionPhrase string, extraArgs ...string) BenchmarkResult {
	fmt.Printf("  %s (%d runs)\n", command, config.Runs)
	args := append([]string{command, "--data-dir", dataDir}, extraArgs...)

	var times []float64
	for range config.Runs {
		if elapsed, ok := runOnce(config.Timeout, args, completionPhrase); ok {
			times = append(times, elapsed)
		}
	}

	coldTime, warmAvg := "TIMEOUT", "TIMEOUT"
	if len(times) > 0 {
		coldTime = fmt.Sprintf("%.3fs", times[0])
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}
	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTime, warmAvg)

	return BenchmarkResult{
		Dataset:  ds.Name,
		Command:  command,
		Rows:     rows,
		ColdTime: coldTime,
		WarmTime: warmAvg,
	}
}

// runOnce executes airseries and returns the elapsed seconds when it completed successfully in time.
func runOnce(timeout time.Duration, args []string, completionPhrase string) (float64, bool) {
	start := time.Now()
	cmd := exec.Command("airseries", args...)

	done := make(chan bool)
	var output []byte
	var cmdErr error

	go func() {
		output, cmdErr = cmd.CombinedOutput()
		done <- true
	}()

	select {
	case <-done:
		if cmdErr == nil && strings.Contains(string(output), completionPhrase) {
			return time.Since(start).Seconds(), true
		}
		return 0, false
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		<-done
		return 0, false
	}
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/airseries_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "rows", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		record := []string{result.Dataset, result.Command, strconv.Itoa(result.Rows), result.ColdTime, result.WarmTime}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range []string{"index", "report"} {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-8s (%8d rows): Cold: %s, Warm: %s\n", result.Dataset, result.Rows, result.ColdTime, result.WarmTime)
			}
		}
	}
}
