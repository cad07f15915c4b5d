package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/deprule/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:])
	cancel()
	if err != nil {
		cli.PrintError(os.Stderr, err)
	}
	os.Exit(cli.ExitCode(err))
}

func run(ctx context.Context, args []string) error {
	// Invoked as "cargo deprule", cargo passes the subcommand name first.
	if len(args) > 0 && args[0] == "deprule" {
		args = args[1:]
	}

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
