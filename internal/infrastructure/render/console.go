package render

import (
	"context"
	"fmt"
	"io"

	"LCExtract/internal/domain"
	"LCExtract/internal/ports"
)

const (
	labelWidth = 28
	valueWidth = 10
)

// ConsoleRenderer prints the per-archive status log and a per-band summary
// statistics table, one column per requested band.
type ConsoleRenderer struct {
	w io.Writer
}

var _ ports.Renderer = (*ConsoleRenderer)(nil)

// NewConsoleRenderer writes to the given sink (typically os.Stdout).
func NewConsoleRenderer(w io.Writer) *ConsoleRenderer {
	return &ConsoleRenderer{w: w}
}

// Render emits the summary for one assembled lightcurve.
func (c *ConsoleRenderer) Render(_ context.Context, lc domain.Lightcurve) error {
	name := lc.Query.Name
	if name == "" {
		name = fmt.Sprintf("RA=%.5f Dec=%.5f", lc.Query.RA, lc.Query.Dec)
	}

	fmt.Fprintf(c.w, "\nObject: %s - summary statistics\n", name)
	if lc.Query.Description != "" {
		fmt.Fprintf(c.w, "%s\n", lc.Query.Description)
	}

	for _, entry := range lc.Log {
		line := fmt.Sprintf("  %-12s %-12s observations=%d rejections=%d",
			entry.Archive, entry.Status, entry.Observations, entry.Rejections)
		if entry.Err != "" {
			line += " error=" + entry.Err
		}
		fmt.Fprintln(c.w, line)
	}
	fmt.Fprintln(c.w)

	fmt.Fprintf(c.w, "%-*s", labelWidth, "")
	for _, band := range lc.Bands {
		fmt.Fprintf(c.w, "%*s", valueWidth, string(band))
	}
	fmt.Fprintln(c.w)

	c.row(lc, "Samples", func(s domain.BandStatistics) string {
		return fmt.Sprintf("%d", s.Count)
	})
	c.statRow(lc, "Mean", func(s domain.BandStatistics) domain.Stat { return s.Mean })
	c.statRow(lc, "Median", func(s domain.BandStatistics) domain.Stat { return s.Median })
	c.statRow(lc, "Standard Deviation", func(s domain.BandStatistics) domain.Stat { return s.Stddev })
	c.statRow(lc, "Median Absolute Deviation", func(s domain.BandStatistics) domain.Stat { return s.MAD })
	c.statRow(lc, "Min", func(s domain.BandStatistics) domain.Stat { return s.Min })
	c.statRow(lc, "Max", func(s domain.BandStatistics) domain.Stat { return s.Max })
	c.statRow(lc, "Time Span (days)", func(s domain.BandStatistics) domain.Stat { return s.SpanDays })

	return nil
}

func (c *ConsoleRenderer) statRow(lc domain.Lightcurve, label string, pick func(domain.BandStatistics) domain.Stat) {
	c.row(lc, label, func(s domain.BandStatistics) string {
		return formatStat(pick(s))
	})
}

func (c *ConsoleRenderer) row(lc domain.Lightcurve, label string, format func(domain.BandStatistics) string) {
	fmt.Fprintf(c.w, "%-*s", labelWidth, label)
	for _, band := range lc.Bands {
		fmt.Fprintf(c.w, "%*s", valueWidth, format(lc.Stats[band]))
	}
	fmt.Fprintln(c.w)
}

// formatStat renders the tri-state statistic: "no data" for an empty series,
// "undef" for an insufficient sample, otherwise the value.
func formatStat(s domain.Stat) string {
	switch s.State {
	case domain.StatValue:
		return fmt.Sprintf("%.3f", s.Value)
	case domain.StatUndefined:
		return "undef"
	default:
		return "no data"
	}
}
