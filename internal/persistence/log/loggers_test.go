package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"pregame.city/internal/sim/arena"
)

func TestEventLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir)

	entries := []arena.EventLogEntry{
		{Tick: 1, PlayerID: "P1", Type: "challengeStarted", Payload: json.RawMessage(`{"type":"challengeStarted"}`)},
		{Tick: 2, PlayerID: "P1", Type: "basketballShotResult", Payload: json.RawMessage(`{"type":"basketballShotResult","made":true}`)},
	}
	for _, e := range entries {
		if err := l.WriteEvent(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "events", "events-*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("log files = %v (%v)", files, err)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var got []arena.EventLogEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e arena.EventLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Tick != 1 || got[0].Type != "challengeStarted" {
		t.Fatalf("entry 0 = %+v", got[0])
	}
	if got[1].PlayerID != "P1" || got[1].Type != "basketballShotResult" {
		t.Fatalf("entry 1 = %+v", got[1])
	}
}
