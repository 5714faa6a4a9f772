// Command leaderboard prints the best runs recorded in the ledger.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/talgya/terraform-garden/internal/engine"
	"github.com/talgya/terraform-garden/internal/persistence"
)

func main() {
	dbPath := flag.String("db", "data/garden.db", "run ledger path")
	limit := flag.Int("n", 10, "how many runs to list")
	recent := flag.Bool("recent", false, "list the latest runs instead of the best")
	events := flag.String("events", "", "print the event log of the run with this ID")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(*dbPath, *limit, *recent, *events); err != nil {
		slog.Error("leaderboard failed", "error", err)
		os.Exit(1)
	}
}

func run(dbPath string, limit int, recent bool, events string) error {
	db, err := persistence.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer db.Close()

	if events != "" {
		if err := printEvents(db, events); err != nil {
			return fmt.Errorf("read run %s: %w", events, err)
		}
		return nil
	}

	list := db.TopRuns
	if recent {
		list = db.RecentRuns
	}
	runs, err := list(limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	n, err := db.CountRuns()
	if err != nil {
		return fmt.Errorf("count runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("%-4s %14s %4s %8s %-10s %-14s %s\n", "#", "SCORE", "TIER", "TIME", "PLAYER", "WHEN", "ID")
	for i, r := range runs {
		fmt.Printf("%-4d %14s %4d %8s %-10s %-14s %s\n",
			i+1,
			humanize.Comma(int64(r.Score)),
			r.Tier,
			engine.FormatClock(r.Clock()),
			r.Player,
			humanize.Time(r.Finished()),
			r.ID,
		)
	}
	fmt.Printf("\n%s runs recorded.", humanize.Comma(int64(n)))
	if seed, err := db.GetMeta("last_seed"); err == nil {
		fmt.Printf(" Last seed played: %s.", seed)
	}
	fmt.Println()
	return nil
}

func printEvents(db *persistence.DB, id string) error {
	rec, err := db.Run(id)
	if err != nil {
		return err
	}
	events, err := db.RunEvents(id)
	if err != nil {
		return err
	}
	st, err := rec.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Run %s, seed %d, score %s, tier %d.\n", rec.ID, rec.Seed, humanize.Comma(int64(rec.Score)), rec.Tier)
	fmt.Printf("Harvested %s over %d plantings.\n", humanize.Comma(int64(st.Harvested)), st.Planted)
	for _, e := range events {
		fmt.Printf("[%s] %-8s %s\n", engine.FormatClock(e.At), e.Category, e.Description)
	}
	return nil
}
