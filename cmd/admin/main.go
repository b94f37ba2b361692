// Command admin runs out-of-band maintenance tasks: catalog seeding, vote
// tally checks and development tokens.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/cursada/planner-api/pkg/config"
	"github.com/cursada/planner-api/pkg/logger"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *environment, args []string) error
}

type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

var commands = []command{
	{name: "seed", summary: "load the university catalog (embedded default or -file)", run: runSeed},
	{name: "check-tallies", summary: "compare stored vote counters with vote rows", run: runCheckTallies},
	{name: "token", summary: "issue a development bearer token", run: runToken},
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cmd, ok := lookup(os.Args[1])
	if !ok {
		color.New(color.FgRed).Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Errorf("load config: %w", err))
	}
	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		fail(fmt.Errorf("init logger: %w", err))
	}
	defer logr.Sync() //nolint:errcheck

	env := &environment{cfg: cfg, logger: logr, out: os.Stdout}
	if err := cmd.run(context.Background(), env, os.Args[2:]); err != nil {
		fail(err)
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: admin <command> [flags]")
	fmt.Fprintln(w)
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-14s %s\n", cmd.name, cmd.summary)
	}
}

func fail(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
