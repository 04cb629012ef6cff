package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/tradebook/internal/app"
	"github.com/bobmcallan/tradebook/internal/models"
	"github.com/bobmcallan/tradebook/internal/services/position"
)

var commands = []subcommands.Command{
	&positionsCmd{},
	&duplicatesCmd{},
	&consolidateCmd{},
	&applyCmd{},
}

func openApp() (*app.App, error) {
	a, err := app.NewApp(*configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return a, nil
}

type positionsCmd struct {
	instrument string
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "list live positions" }
func (*positionsCmd) Usage() string {
	return `tradebook-admin positions [-i <instrument>]

  Lists every live position, or the one held for -i.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.instrument, "i", "", "Show only this instrument.")
}

func (c *positionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	svc := a.PositionService
	if c.instrument != "" {
		p, err := svc.Position(ctx, c.instrument)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		printMarkdown(positionsMarkdown([]*models.Position{p}, a.Config.DisplayCurrency))
		return subcommands.ExitSuccess
	}

	positions, err := svc.Positions(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(positionsMarkdown(positions, a.Config.DisplayCurrency))
	return subcommands.ExitSuccess
}

type duplicatesCmd struct{}

func (*duplicatesCmd) Name() string     { return "duplicates" }
func (*duplicatesCmd) Synopsis() string { return "list instruments held in more than one record" }
func (*duplicatesCmd) Usage() string {
	return `tradebook-admin duplicates

  Lists each duplicate group with the position it would merge into.
`
}

func (*duplicatesCmd) SetFlags(*flag.FlagSet) {}

func (*duplicatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	groups, err := a.PositionService.Duplicates(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(duplicatesMarkdown(groups, a.Config.DisplayCurrency))
	return subcommands.ExitSuccess
}

type consolidateCmd struct {
	dryRun bool
}

func (*consolidateCmd) Name() string     { return "consolidate" }
func (*consolidateCmd) Synopsis() string { return "merge duplicate positions into one per instrument" }
func (*consolidateCmd) Usage() string {
	return `tradebook-admin consolidate [-dry-run]

  Merges every duplicate group into its earliest record at the weighted
  average price. Groups that cannot be merged are reported and left alone.
`
}

func (c *consolidateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "Show the merge without writing it.")
}

func (c *consolidateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var result *models.Consolidation
	if c.dryRun {
		result, err = a.PositionService.PreviewConsolidation(ctx)
	} else {
		result, err = a.PositionService.ConsolidateAll(ctx)
	}
	if result != nil {
		printMarkdown(consolidationMarkdown(result, c.dryRun, a.Config.DisplayCurrency))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if len(result.Failures) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type applyCmd struct {
	file string
}

func (*applyCmd) Name() string     { return "apply" }
func (*applyCmd) Synopsis() string { return "apply executed orders from a JSON lines file" }
func (*applyCmd) Usage() string {
	return `tradebook-admin apply -file <orders.jsonl | ->

  Applies one executed order per line in file order. Orders that cannot be
  applied are reported; a store failure stops the run.
`
}

func (c *applyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "-", "Orders file, or - for stdin.")
}

func (c *applyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var in io.Reader = os.Stdin
	if c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		in = f
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	report, err := a.PositionService.ApplyAll(ctx, position.NewJSONLSource(in))
	if report != nil {
		printMarkdown(applyReportMarkdown(report, a.Config.DisplayCurrency))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if len(report.Failures) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
