package battle

import (
	"fmt"
	"hash/fnv"
	"io"
)

// Identity derives the content address of a finished battle: a 64-bit
// FNV-1a hash over every pool's winner tickers, traversed in a fixed order
// (judges in selection order, rounds first to last, pools by index, winners
// as judged). Battles with identical winner sequences collapse to the same
// identity on purpose; a finished battle is keyed on its outcome, not on
// wall-clock time or candidate metadata.
func Identity(runs map[string]*JudgeRun, judgeOrder []string) string {
	h := fnv.New64a()
	for _, id := range judgeOrder {
		run, ok := runs[id]
		if !ok {
			continue
		}
		io.WriteString(h, id)
		h.Write([]byte{0})
		for ri := range run.Rounds {
			for pi := range run.Rounds[ri].Pools {
				fmt.Fprintf(h, "%d.%d:", ri, pi)
				for _, w := range run.Rounds[ri].Pools[pi].Winners {
					io.WriteString(h, w.Coin.Ticker)
					h.Write([]byte{'|'})
				}
				h.Write([]byte{'\n'})
			}
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
