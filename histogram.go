package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// RenderHistogram draws one bar per nbits-wide outcome, observed or not,
// followed by the most frequent outcome.
func RenderHistogram(title string, counts Counts, nbits, width int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	total := counts.Total()
	if total == 0 {
		sb.WriteString(dimStyle.Render("no results"))
		return sb.String()
	}

	// label, bar, count and percentage
	barW := max(width-2*barLabelW-8, 10)
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)

	outcomes := Outcomes(nbits)
	for _, k := range counts.Keys() {
		// keys of another width still get a bar
		if len(k) != nbits {
			outcomes = append(outcomes, k)
		}
	}
	for _, k := range outcomes {
		p := counts.Probability(k)
		fmt.Fprintf(&sb, "%s%s %s\n",
			cbitLabelStyle.Render(fmt.Sprintf("%-*s", barLabelW, k)),
			bar.ViewAs(p),
			dimStyle.Render(fmt.Sprintf("%6d %5.1f%%", counts[k], 100*p)))
	}

	fmt.Fprintf(&sb, "\n%s %s  %s",
		activeGateStyle.Render("decoded:"),
		gateStyle.Render(counts.MostFrequent()),
		dimStyle.Render(fmt.Sprintf("(%d shots)", total)))
	return sb.String()
}
