package scoring

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

const plotBarWidth = 50

// Plot writes a horizontal bar chart of scores in ascending order. Rows
// whose label is 1 are marked with "*". labels may be nil.
func Plot(w io.Writer, scores []float64, labels []int, title string) {
	if len(scores) == 0 {
		return
	}

	type row struct {
		index   int
		score   float64
		outlier bool
	}

	rows := make([]row, len(scores))
	for i, s := range scores {
		rows[i] = row{index: i, score: s, outlier: i < len(labels) && labels[i] == 1}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].score < rows[j].score
	})

	minScore := rows[0].score
	maxScore := rows[len(rows)-1].score

	fmt.Fprintf(w, "\n%s (ascending):\n", title)
	fmt.Fprintln(w, "   Index | Score        | Bar")
	fmt.Fprintln(w, "---------|--------------|"+strings.Repeat("-", plotBarWidth+2))

	for _, r := range rows {
		barWidth := plotBarWidth / 2
		if maxScore != minScore {
			barWidth = int((r.score - minScore) / (maxScore - minScore) * plotBarWidth)
		}

		bar := strings.Repeat("█", barWidth)
		if barWidth == 0 {
			bar = "▏"
		}
		mark := " "
		if r.outlier {
			mark = "*"
		}
		fmt.Fprintf(w, "%8d | %12.6g |%s%s\n", r.index, r.score, mark, bar)
	}

	fmt.Fprintf(w, "\nScale: min=%.6g max=%.6g, * = outlier\n", minScore, maxScore)
}
