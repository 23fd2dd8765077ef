// Inspects the compressed event history of an arena: filters entries by
// player, type or tick range and prints a per-type summary with every
// finished challenge.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"pregame.city/internal/protocol"
	"pregame.city/internal/sim/arena"
)

func main() {
	var (
		eventsDir = flag.String("events", "", "events dir containing events-*.jsonl.zst")
		playerID  = flag.String("player", "", "only entries for this player id (optional)")
		eventType = flag.String("type", "", "only entries of this event type (optional)")
		fromTick  = flag.Uint64("from_tick", 0, "start at tick (inclusive, optional)")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		verbose   = flag.Bool("v", false, "print every matching entry")
	)
	flag.Parse()

	if *eventsDir == "" {
		fmt.Fprintln(os.Stderr, "missing -events")
		os.Exit(2)
	}

	files, err := listEventFiles(*eventsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	byType := map[string]int{}
	var total, matched uint64
	var ended []protocol.ChallengeEndedMsg

	for _, path := range files {
		err := scanFile(path, func(e arena.EventLogEntry) error {
			total++
			if *fromTick != 0 && e.Tick < *fromTick {
				return nil
			}
			if *toTick != 0 && e.Tick > *toTick {
				return nil
			}
			if *playerID != "" && e.PlayerID != *playerID {
				return nil
			}
			if *eventType != "" && e.Type != *eventType {
				return nil
			}
			matched++
			byType[e.Type]++

			if e.Type == protocol.TypeChallengeEnded {
				var msg protocol.ChallengeEndedMsg
				if err := json.Unmarshal(e.Payload, &msg); err == nil {
					ended = append(ended, msg)
				}
			}
			if *verbose {
				fmt.Printf("tick=%d player=%s %s\n", e.Tick, e.PlayerID, string(e.Payload))
			}
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("scanned %d entries, %d matched\n", total, matched)

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-28s %d\n", t, byType[t])
	}

	if len(ended) > 0 {
		fmt.Printf("challenges ended: %d\n", len(ended))
		for _, e := range ended {
			fmt.Printf("  %s sport=%s challenge=%s score=%d xp=%d coins=%d reason=%s\n",
				e.ChallengeSessionID, e.Sport, e.ChallengeID, e.FinalScore, e.XPEarned, e.CoinsEarned, e.Reason)
		}
	}
}

func listEventFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func scanFile(path string, fn func(arena.EventLogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var entry arena.EventLogEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return sc.Err()
}
