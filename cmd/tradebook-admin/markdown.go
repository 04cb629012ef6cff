package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/models"
)

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

const positionHeader = "| Instrument | Quantity | Average | Mark | Unrealized P&L | P&L % |\n|---|---:|---:|---:|---:|---:|\n"

func positionRow(sb *strings.Builder, p models.Position, cur string) {
	fmt.Fprintf(sb, "| %s | %d | %s | %s | %s | %s |\n",
		p.Instrument,
		p.Quantity,
		common.FormatMoney(p.AveragePrice, cur),
		common.FormatMoney(p.MarkPrice, cur),
		common.FormatMoney(p.UnrealizedPnL, cur),
		common.FormatPercent(p.UnrealizedPnLPct))
}

func positionsMarkdown(positions []*models.Position, cur string) string {
	var sb strings.Builder
	sb.WriteString("# Positions\n\n")
	if len(positions) == 0 {
		sb.WriteString("No live positions.\n")
		return sb.String()
	}

	sb.WriteString(positionHeader)
	for _, p := range positions {
		positionRow(&sb, *p, cur)
	}
	fmt.Fprintf(&sb, "\n%d position(s)\n", len(positions))
	return sb.String()
}

func duplicatesMarkdown(groups []models.DuplicateGroup, cur string) string {
	var sb strings.Builder
	sb.WriteString("# Duplicate positions\n\n")
	if len(groups) == 0 {
		sb.WriteString("Every instrument is held in a single record.\n")
		return sb.String()
	}

	for _, g := range groups {
		fmt.Fprintf(&sb, "## %s\n\n", g.Instrument)
		sb.WriteString("| Record | Quantity | Average | Mark | Created |\n|---|---:|---:|---:|---|\n")
		for _, p := range g.Positions {
			fmt.Fprintf(&sb, "| `%s` | %d | %s | %s | %s |\n",
				p.ID, p.Quantity,
				common.FormatMoney(p.AveragePrice, cur),
				common.FormatMoney(p.MarkPrice, cur),
				p.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		sb.WriteString("\n")
		if g.Preview != nil {
			fmt.Fprintf(&sb, "Merges into `%s`: %d @ %s\n\n",
				g.Preview.ID, g.Preview.Quantity, common.FormatMoney(g.Preview.AveragePrice, cur))
		} else {
			fmt.Fprintf(&sb, "**Cannot merge:** %s\n\n", g.Reason)
		}
	}
	return sb.String()
}

func consolidationMarkdown(result *models.Consolidation, dryRun bool, cur string) string {
	var sb strings.Builder
	if dryRun {
		sb.WriteString("# Consolidation preview\n\n")
	} else {
		sb.WriteString("# Consolidation\n\n")
	}

	if len(result.Groups) == 0 && len(result.Failures) == 0 {
		sb.WriteString("No duplicate positions found.\n")
		return sb.String()
	}

	if len(result.Groups) > 0 {
		sb.WriteString("| Instrument | Survivor | Removed | Quantity | Average |\n|---|---|---:|---:|---:|\n")
		for _, g := range result.Groups {
			fmt.Fprintf(&sb, "| %s | `%s` | %d | %d | %s |\n",
				g.Instrument, g.SurvivorID, len(g.RemovedIDs), g.After.Quantity,
				common.FormatMoney(g.After.AveragePrice, cur))
		}
		sb.WriteString("\n")
	}

	if len(result.Failures) > 0 {
		sb.WriteString("## Skipped\n\n")
		for _, f := range result.Failures {
			fmt.Fprintf(&sb, "- **%s** (%d records): %s\n", f.Instrument, len(f.IDs), f.Reason)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "%d group(s) merged, %d record(s) removed, %d group(s) skipped\n",
		len(result.Groups), len(result.RemovedIDs), len(result.Failures))
	return sb.String()
}

func applyReportMarkdown(report *models.ApplyReport, cur string) string {
	var sb strings.Builder
	sb.WriteString("# Orders applied\n\n")

	if len(report.Outcomes) > 0 {
		sb.WriteString("| Instrument | Action | Quantity | Average |\n|---|---|---:|---:|\n")
		for _, o := range report.Outcomes {
			action := string(o.Action)
			if o.Overdraft {
				action += " (overdraft)"
			}
			fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n",
				o.Position.Instrument, action, o.Position.Quantity,
				common.FormatMoney(o.Position.AveragePrice, cur))
		}
		sb.WriteString("\n")
	}

	if len(report.Failures) > 0 {
		sb.WriteString("## Rejected\n\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&sb, "- line %d: %s\n", f.Line, f.Reason)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "%d applied, %d rejected\n", report.Applied, len(report.Failures))
	return sb.String()
}
