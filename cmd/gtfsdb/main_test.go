package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var smallFeed = map[string]string{
	"agency.txt":     "agency_id,agency_name,agency_url,agency_timezone\nA1,Transit,https://example.org,UTC\n",
	"stops.txt":      "stop_id,stop_name,stop_lat,stop_lon\nS1,First,40.0,-75.0\nS2,Second,40.1,-75.1\n",
	"routes.txt":     "route_id,route_short_name,route_type\nR1,1,3\n",
	"trips.txt":      "route_id,service_id,trip_id\nR1,WK,T1\n",
	"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\nT1,08:00:00,08:00:00,S1,1\nT1,08:10:00,08:10:00,S2,2\n",
	"calendar.txt":   "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\nWK,1,1,1,1,1,0,0,20240101,20241231\n",
}

func writeSmallFeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range smallFeed {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GTFSDB_CONFIG", "GTFSDB_DB_DRIVER", "GTFSDB_DB_DSN", "GTFSDB_BATCH_SIZE",
		"GTFSDB_ROW_POLICY", "GTFSDB_MAX_LINE_LENGTH", "GTFSDB_REQUIRE_CORE_FILES",
		"GTFSDB_CLEAR_EXISTING", "GTFSDB_LOG_LEVEL", "GTFSDB_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestRunMemory(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--mode", "memory", "--log-level", "error", writeSmallFeed(t)}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"stops", "stop_times", "feed_info"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunSemanticVerify(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "gtfs.db")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--db", db, "--verify", "--require-core-files", "--log-level", "error", writeSmallFeed(t)}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"semantic import: success", "committed 8 rows in 1 batches", "stored rows:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunRawModernc(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "gtfs.db")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-m", "raw", "--driver", "sqlite", "--db", db, "--batch-size", "3", "--log-level", "error", writeSmallFeed(t)}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	if out := stdout.String(); !strings.Contains(out, "raw import: success") || !strings.Contains(out, "in 3 batches") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunFlagOverridesInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GTFSDB_ROW_POLICY", "retry")
	feed := writeSmallFeed(t)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"--mode", "memory", "--log-level", "error", feed}, &stdout, &stderr); code != 1 {
		t.Errorf("run() with invalid env = %d, want 1", code)
	}

	stdout.Reset()
	stderr.Reset()
	code := run([]string{"--mode", "memory", "--row-policy", "abort", "--log-level", "error", feed}, &stdout, &stderr)
	if code != 0 {
		t.Errorf("run() with --row-policy override = %d, want 0; stderr: %s", code, stderr.String())
	}
}

func TestRunFailures(t *testing.T) {
	feed := writeSmallFeed(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no feed", []string{}, 2},
		{"two feeds", []string{feed, feed}, 2},
		{"unknown flag", []string{"--bogus", feed}, 2},
		{"unknown mode", []string{"--mode", "stream", "--log-level", "error", feed}, 2},
		{"invalid config", []string{"--driver", "mysql", feed}, 1},
		{"missing feed", []string{"--mode", "memory", "--log-level", "error", filepath.Join(t.TempDir(), "none")}, 1},
		{"help", []string{"--help"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, &stdout, &stderr); got != tt.want {
				t.Errorf("run(%v) = %d, want %d; stderr: %s", tt.args, got, tt.want, stderr.String())
			}
		})
	}
}
