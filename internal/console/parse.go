// Package console implements the line-oriented player interface: parsing
// typed commands and running them against a simulation.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

var (
	ErrEmpty          = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Verb names a console command.
type Verb string

const (
	VerbPlant   Verb = "plant"
	VerbBuy     Verb = "buy"
	VerbRefresh Verb = "refresh"
	VerbUproot  Verb = "uproot"
	VerbWait    Verb = "wait"
	VerbStatus  Verb = "status"
	VerbGrid    Verb = "grid"
	VerbShop    Verb = "shop"
	VerbPouch   Verb = "pouch"
	VerbEvents  Verb = "events"
	VerbHelp    Verb = "help"
	VerbQuit    Verb = "quit"
)

type verbInfo struct {
	usage string
	help  string
}

var verbs = map[Verb]verbInfo{
	VerbPlant:   {"plant <row> <col> <seed>", "sow a seed from the pouch"},
	VerbBuy:     {"buy <slot> [<row> <col>]", "buy an offer; plant it or keep the seed"},
	VerbRefresh: {"refresh", "re-roll the shop"},
	VerbUproot:  {"uproot <row> <col>", "remove a plant without harvesting"},
	VerbWait:    {"wait [duration]", "let time pass (default 1s)"},
	VerbStatus:  {"status", "score, fruit, tier and weather"},
	VerbGrid:    {"grid", "draw the garden"},
	VerbShop:    {"shop", "list offers"},
	VerbPouch:   {"pouch", "list seeds"},
	VerbEvents:  {"events [n]", "show recent events"},
	VerbHelp:    {"help", "list commands"},
	VerbQuit:    {"quit", "end the session"},
}

// Verb order for help output.
var verbOrder = []Verb{
	VerbPlant, VerbBuy, VerbRefresh, VerbUproot, VerbWait,
	VerbStatus, VerbGrid, VerbShop, VerbPouch, VerbEvents, VerbHelp, VerbQuit,
}

var aliases = map[string]Verb{
	"sow":  VerbPlant,
	"b":    VerbBuy,
	"r":    VerbRefresh,
	"rm":   VerbUproot,
	"w":    VerbWait,
	"s":    VerbStatus,
	"g":    VerbGrid,
	"?":    VerbHelp,
	"exit": VerbQuit,
	"q":    VerbQuit,
}

// DefaultWait is how long a bare "wait" advances the clock.
const DefaultWait = time.Second

// Command is a parsed console line. A buy without a cell has Row and Col -1.
type Command struct {
	Verb     Verb
	Seed     string
	Slot     int
	Row, Col int
	Duration time.Duration
	Count    int
}

// Parse reads one console line. Unknown verbs get a suggestion when one is
// close enough.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}
	word, args := strings.ToLower(fields[0]), fields[1:]

	v := Verb(word)
	if alias, ok := aliases[word]; ok {
		v = alias
	}
	info, ok := verbs[v]
	if !ok {
		if s := Suggest(word); s != "" {
			return Command{}, fmt.Errorf("%w %q, did you mean %q?", ErrUnknownCommand, word, s)
		}
		return Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, word)
	}
	usage := func() error { return fmt.Errorf("%w: %s", ErrUsage, info.usage) }

	cmd := Command{Verb: v}
	switch v {
	case VerbPlant:
		if len(args) < 3 {
			return cmd, usage()
		}
		if err := parseCell(args[:2], &cmd); err != nil {
			return cmd, usage()
		}
		cmd.Seed = strings.Join(args[2:], " ")
	case VerbBuy:
		if len(args) != 1 && len(args) != 3 {
			return cmd, usage()
		}
		slot, err := strconv.Atoi(args[0])
		if err != nil {
			return cmd, usage()
		}
		cmd.Slot = slot
		cmd.Row, cmd.Col = -1, -1
		if len(args) == 3 {
			if err := parseCell(args[1:], &cmd); err != nil {
				return cmd, usage()
			}
		}
	case VerbUproot:
		if len(args) != 2 {
			return cmd, usage()
		}
		if err := parseCell(args, &cmd); err != nil {
			return cmd, usage()
		}
	case VerbWait:
		cmd.Duration = DefaultWait
		if len(args) > 1 {
			return cmd, usage()
		}
		if len(args) == 1 {
			d, err := parseDuration(args[0])
			if err != nil || d <= 0 {
				return cmd, usage()
			}
			cmd.Duration = d
		}
	case VerbEvents:
		cmd.Count = 10
		if len(args) > 1 {
			return cmd, usage()
		}
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return cmd, usage()
			}
			cmd.Count = n
		}
	default:
		if len(args) != 0 {
			return cmd, usage()
		}
	}
	return cmd, nil
}

func parseCell(args []string, cmd *Command) error {
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return err
	}
	cmd.Row, cmd.Col = row, col
	return nil
}

// parseDuration accepts Go durations and bare seconds ("5" is 5s).
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// Suggest returns the closest verb to word within an edit distance of two,
// or "" when nothing is close.
func Suggest(word string) string {
	names := make([]string, len(verbOrder))
	for i, v := range verbOrder {
		names[i] = string(v)
	}
	return Closest(word, names, 2)
}

// Closest returns the candidate nearest to word, ignoring case, if it is
// within maxDist edits. Ties go to the earlier candidate.
func Closest(word string, candidates []string, maxDist int) string {
	word = strings.ToLower(word)
	best, bestDist := "", maxDist+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(word, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Help lists every command with its usage.
func Help() string {
	var b strings.Builder
	for _, v := range verbOrder {
		info := verbs[v]
		fmt.Fprintf(&b, "  %-26s %s\n", info.usage, info.help)
	}
	return b.String()
}
