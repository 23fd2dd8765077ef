// Queries the challenge results index of a stopped or running arena.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"pregame.city/internal/persistence/indexdb"
)

func main() {
	var (
		dbPath   = flag.String("db", "./data/arenas/city_1/index/arena.db", "path to arena.db")
		playerID = flag.String("player", "", "player id to query")
		limit    = flag.Int("limit", 20, "max rows")
	)
	flag.Parse()

	if *playerID == "" {
		fmt.Fprintln(os.Stderr, "missing -player")
		os.Exit(2)
	}

	idx, err := indexdb.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	defer idx.Close()

	rows, err := idx.PlayerResults(context.Background(), *playerID, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Printf("no results for %s\n", *playerID)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICK\tSESSION\tSPORT\tCHALLENGE\tSCORE\tHITS\tXP\tCOINS\tREASON")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Tick, r.SessionID, r.Sport, r.ChallengeID, r.FinalScore, r.Hits, r.XPEarned, r.CoinsEarned, r.Reason)
	}
	_ = w.Flush()
}
