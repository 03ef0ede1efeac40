// Command b3data loads, reshapes, filters and aggregates the scalar and time
// series tables of an energy system model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	apperrors "b3data/internal/errors"
	"b3data/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return apperrors.ExitCode(apperrors.ErrValidation)
	}

	name := args[0]
	switch name {
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "b3data: unknown command %q\n\n", name)
		usage(stderr)
		return apperrors.ExitCode(apperrors.ErrValidation)
	}

	opts := &options{}
	fs := flag.NewFlagSet("b3data "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts.register(fs, cmd.flags)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: b3data %s [flags]\n\n%s\n\n", name, cmd.summary)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return apperrors.ExitCode(apperrors.ErrValidation)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "b3data %s: unexpected arguments: %s\n", name, strings.Join(fs.Args(), " "))
		return apperrors.ExitCode(apperrors.ErrValidation)
	}

	err := execute(ctx, cmd, opts, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "b3data %s: %v\n", name, err)
	}
	return apperrors.ExitCode(err)
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "%s\n\nusage: b3data <command> [flags]\n\ncommands:\n", contracts.GetVersionString())

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "version", "print version information")

	fmt.Fprintf(w, "\nRun 'b3data <command> -h' for the flags of a command.\n\nexit status:\n")
	fmt.Fprintf(w, "%3d  %s\n%3d  %s\n", 0, "OK", 1, "UNEXPECTED")
	for _, line := range apperrors.ExitCodes() {
		fmt.Fprintln(w, line)
	}
}
