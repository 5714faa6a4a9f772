// Command gardener runs batches of headless autopilot games and reports how
// the policy fares across seeds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/terraform-garden/internal/config"
	"github.com/talgya/terraform-garden/internal/engine"
	"github.com/talgya/terraform-garden/internal/entropy"
	"github.com/talgya/terraform-garden/internal/gardener"
	"github.com/talgya/terraform-garden/internal/persistence"
	"github.com/talgya/terraform-garden/internal/plants"
	"github.com/talgya/terraform-garden/internal/weather"
)

type options struct {
	configPath string
	runs       int
	seed       int64
	maxTicks   uint64
	interval   time.Duration
	dbPath     string
	memoryPath string
	hold       string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML config file (defaults when empty)")
	flag.IntVar(&opts.runs, "runs", 10, "number of games")
	flag.Int64Var(&opts.seed, "seed", 0, "first seed; later games use seed+1, seed+2, ... (0 draws one)")
	flag.Uint64Var(&opts.maxTicks, "max", 36000, "tick limit per game")
	flag.DurationVar(&opts.interval, "interval", 100*time.Millisecond, "simulated time per tick")
	flag.StringVar(&opts.dbPath, "db", "", "run ledger path; empty disables recording")
	flag.StringVar(&opts.memoryPath, "memory", "gardener_memory.json", "cycle memory file, resumed and rewritten; empty disables")
	flag.StringVar(&opts.hold, "hold", "meteor", "comma-separated threats the autopilot saves fruit for")
	flag.Parse()

	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	}
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, opts)
	stop()
	if err != nil {
		slog.Error("gardener failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	entries, err := plants.LoadManifest(cfg.Manifest)
	if err != nil {
		return err
	}
	pol := gardener.DefaultPolicy()
	if pol.HoldFor, err = weather.ParseKinds(opts.hold); err != nil {
		return fmt.Errorf("-hold: %w", err)
	}

	first := opts.seed
	if first == 0 {
		first = entropy.NewSeed(ctx, entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY")))
	}

	var db *persistence.DB
	if opts.dbPath != "" {
		if db, err = persistence.Open(opts.dbPath); err != nil {
			return err
		}
		defer db.Close()
	}

	memory := &gardener.CycleMemory{}
	if opts.memoryPath != "" {
		memory = gardener.LoadMemory(opts.memoryPath)
	}

	var (
		total, best float64
		survived    int
		played      int
	)
	for i := 0; i < opts.runs && ctx.Err() == nil; i++ {
		cfg.Seed = first + int64(i)
		sim, err := engine.NewSimulation(cfg, entries)
		if err != nil {
			return err
		}

		pilot := gardener.New(pol)
		pilot.Memory = memory
		eng := engine.NewEngine()
		eng.Interval = opts.interval
		eng.MaxTicks = opts.maxTicks
		eng.Unthrottled = true
		pilot.Attach(eng, sim)
		if err := eng.Run(ctx); err != nil {
			slog.Warn("game interrupted", "seed", cfg.Seed, "tick", eng.Tick)
		}

		sum := sim.Summary()
		played++
		total += sum.Score
		best = max(best, sum.Score)
		outcome := "alive"
		if sum.GameOver {
			outcome = "died"
		} else {
			survived++
		}
		crisis := "-"
		if last, ok := memory.Last(); ok {
			crisis = last.CrisisLevel
		}
		fmt.Printf("seed %-20d score %14s  tier %2d  %s at %s (last crisis %s)\n",
			sum.Seed, humanize.Comma(int64(sum.Score)), sum.Tier, outcome, engine.FormatClock(sum.Clock), crisis)

		if db != nil {
			if err := db.SaveRun(persistence.NewRunRecord(sum, "autopilot", time.Now()), sim.Events()); err != nil {
				return fmt.Errorf("record seed %d: %w", sum.Seed, err)
			}
			if err := db.SaveMeta("last_seed", strconv.FormatInt(sum.Seed, 10)); err != nil {
				return err
			}
		}
	}

	if played > 0 {
		fmt.Printf("\n%d games: mean score %s, best %s, %d survived.\n",
			played, humanize.Comma(int64(total/float64(played))), humanize.Comma(int64(best)), survived)
	}
	if opts.memoryPath != "" {
		if err := memory.Save(opts.memoryPath); err != nil {
			return err
		}
	}
	return nil
}
