package profiler

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/maruel/natural"
)

// Report renders a Snapshot as the hot-node table `quanta bench` prints:
// one row per profiled node, natural-sorted by source position so line 2
// sorts before line 10 instead of "10" < "2" lexically.
func Report(w io.Writer, spots []HotSpot, since time.Time) error {
	rows := make([]HotSpot, len(spots))
	copy(rows, spots)
	sort.Slice(rows, func(i, j int) bool {
		return natural.Less(position(rows[i]), position(rows[j]))
	})

	if _, err := fmt.Fprintf(w, "profiled %s\n", humanize.Time(since)); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "  (no profiled nodes)")
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "  %-12s %-13s count=%-6d deopts=%d\n",
			position(r), r.Tier, r.Count, r.DeoptCount); err != nil {
			return err
		}
	}
	return nil
}

func position(r HotSpot) string {
	return fmt.Sprintf("%d:%d", r.Line, r.Column)
}
