package console

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/talgya/terraform-garden/internal/engine"
)

// PrintSummary writes the end-of-run report.
func PrintSummary(w io.Writer, sum engine.Summary) {
	st := sum.Stats
	fmt.Fprintf(w, "\nSeed %d, %s of garden time over %s ticks.\n",
		sum.Seed, engine.FormatClock(sum.Clock), humanize.Comma(int64(sum.Ticks)))
	fmt.Fprintf(w, "Score %s (tier %d), %s fruit left.\n", fruit(sum.Score), sum.Tier, fruit(sum.Fruit))
	fmt.Fprintf(w, "Planted %d, withered %d, destroyed %d, uprooted %d.\n",
		st.Planted, st.Withered, st.Destroyed, st.Uprooted)
	fmt.Fprintf(w, "%d purchases, %d refreshes, %d weather events.\n", st.Purchases, st.Refreshes, st.Weather)
	if sum.GameOver {
		fmt.Fprintln(w, "The garden died.")
	} else {
		fmt.Fprintf(w, "The garden survived with %d plants.\n", sum.Occupied)
	}
}
