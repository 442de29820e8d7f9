package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/airseries/internal/contract"
)

// logIngestHeader prints a concise header before a fetch pass.
func logIngestHeader(ctx context.Context, cfg *contract.Config, sensors int) {
	if shouldSuppressHeader(ctx) {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "🔎 Sensors: %d (registry: %s)\n", sensors, cfg.RegistryFile)
	_, _ = fmt.Fprintf(os.Stderr, "⏱️  Pacing: %s between calls, %s after failures, forward fetch after %s\n",
		cfg.RequestDelay, cfg.FailureCooldown, cfg.Freshness)
}

// logIndexHeader prints a concise header before indexing.
func logIndexHeader(ctx context.Context, cfg *contract.Config) {
	if shouldSuppressHeader(ctx) {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "🗂️  Index: %s (check: %s)\n", cfg.IndexBackend, cfg.IndexCheck)
}

// logReportHeader prints the window covered by a report.
func logReportHeader(ctx context.Context, cfg *contract.Config, now time.Time) {
	if shouldSuppressHeader(ctx) {
		return
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	from := now.Add(-time.Duration(cfg.WindowDays) * 24 * time.Hour)
	_, _ = fmt.Fprintf(os.Stderr, "📊 Report: %s of %s channel\n", cfg.ReportMode, cfg.Channel)
	_, _ = fmt.Fprintf(os.Stderr, "📅 Range: %s → %s\n",
		from.In(loc).Format(contract.DateTimeFormat), now.In(loc).Format(contract.DateTimeFormat))
}

// logDuration prints how long a command took.
func logDuration(ctx context.Context, what string, start time.Time) {
	if shouldSuppressHeader(ctx) {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s completed in %v\n", what, time.Since(start).Round(time.Millisecond))
}
