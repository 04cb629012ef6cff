// Command tradebook-admin inspects and repairs positions from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "", "path to tradebook.toml (default: $TRADEBOOK_CONFIG, then beside the binary)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "positions")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
