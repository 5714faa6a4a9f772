// Command gardensim plays one garden run, either under the autopilot or at an
// interactive console, and records the result in the run ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/talgya/terraform-garden/internal/config"
	"github.com/talgya/terraform-garden/internal/console"
	"github.com/talgya/terraform-garden/internal/engine"
	"github.com/talgya/terraform-garden/internal/entropy"
	"github.com/talgya/terraform-garden/internal/gardener"
	"github.com/talgya/terraform-garden/internal/persistence"
	"github.com/talgya/terraform-garden/internal/plants"
	"github.com/talgya/terraform-garden/internal/weather"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty)")
	seed := flag.Int64("seed", 0, "run seed; 0 uses the config seed or draws a fresh one")
	dbPath := flag.String("db", "data/garden.db", "run ledger path; empty disables recording")
	manifest := flag.String("manifest", "", "plant manifest CSV (overrides config)")
	speed := flag.Float64("speed", 0, "real-time multiplier for autopilot runs; 0 runs unthrottled")
	interval := flag.Duration("interval", 100*time.Millisecond, "simulated time per tick")
	maxTicks := flag.Uint64("max", 36000, "stop an autopilot run after this many ticks; 0 runs until the garden dies")
	interactive := flag.Bool("interactive", false, "play at the console instead of the autopilot")
	hold := flag.String("hold", "meteor", "comma-separated threats the autopilot saves fruit for")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	setupLogger(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = entropy.NewSeed(ctx, entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY")))
	}
	if *manifest != "" {
		cfg.Manifest = *manifest
	}

	entries, err := plants.LoadManifest(cfg.Manifest)
	if err != nil {
		slog.Error("failed to load plant manifest", "error", err)
		os.Exit(1)
	}

	sim, err := engine.NewSimulation(cfg, entries)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	player := "autopilot"
	if *interactive {
		player = "console"
		sess := console.NewSession(sim, os.Stdout, *interval)
		if err := sess.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
			slog.Error("console failed", "error", err)
		}
	} else {
		pol := gardener.DefaultPolicy()
		if pol.HoldFor, err = weather.ParseKinds(*hold); err != nil {
			slog.Error("invalid -hold", "error", err)
			os.Exit(1)
		}
		runAutopilot(ctx, sim, pol, *speed, *interval, *maxTicks)
	}

	sum := sim.Summary()
	console.PrintSummary(os.Stdout, sum)

	if *dbPath == "" {
		return
	}
	if err := record(*dbPath, sum, sim.Events(), player); err != nil {
		slog.Error("failed to record run", "error", err)
		os.Exit(1)
	}
}

// runAutopilot drives the engine until the garden dies, the tick limit is
// reached or ctx is cancelled.
func runAutopilot(ctx context.Context, sim *engine.Simulation, pol gardener.Policy, speed float64, interval time.Duration, maxTicks uint64) {
	pilot := gardener.New(pol)

	eng := engine.NewEngine()
	eng.Interval = interval
	eng.MaxTicks = maxTicks
	eng.Speed = speed
	eng.Unthrottled = speed <= 0
	pilot.Attach(eng, sim)

	fmt.Printf("Seed %d: autopilot tending the garden... (Ctrl+C to stop)\n", sim.Seed())
	if err := eng.Run(ctx); err != nil {
		slog.Info("run interrupted", "tick", eng.Tick)
	}
	if s := pilot.Memory.Format(); s != "" {
		slog.Debug("autopilot memory", "cycles", pilot.Memory.Cycles, "recent", s)
	}
}

func record(path string, sum engine.Summary, events []engine.Event, player string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	db, err := persistence.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	best, err := db.HighScore()
	if err != nil {
		return err
	}
	if err := db.SaveRun(persistence.NewRunRecord(sum, player, time.Now()), events); err != nil {
		return err
	}
	if err := db.SaveMeta("last_seed", strconv.FormatInt(sum.Seed, 10)); err != nil {
		return err
	}
	if sum.Score > best {
		fmt.Println("New high score!")
	}
	return nil
}

// setupLogger installs a text handler on a terminal and JSON otherwise.
func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
