package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/t2bot/nzbkit/common"
)

var stdout io.Writer = os.Stdout
var stderr io.Writer = os.Stderr
var fsys = afero.NewOsFs()

// errReported means the command already told the user what went wrong.
var errReported = errors.New("reported")

type command struct {
	usage string
	about string
	run   func(args []string) error
}

var commands = map[string]command{
	"combine": {"combine <target> <sources...>", "Add the files of other NZBs to the target NZB", runCombine},
	"extract": {"extract <input> <glob|regex>", "Write an NZB holding only the matching files", runExtract},
	"get":     {"get <input> <filename>", "Download a file, or a byte range of it", runGet},
	"check":   {"check <input> [filename]", "Check that every article is still on the server", runCheck},
	"search":  {"search <query>", "Build an NZB from a newsgroup's overview", runSearch},
	"mirror":  {"mirror <input>", "Copy every article to another server", runMirror},
	"serve":   {"serve <input>", "Serve the files of an NZB over HTTP", runServe},
	"version": {"version", "Print the version", runVersion},
}

type fileNotFoundError struct {
	name string
}

func (e *fileNotFoundError) Error() string {
	return "File \"" + e.name + "\" not found in NZB"
}

func (e *fileNotFoundError) Unwrap() error {
	return common.ErrFileNotFound
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: nzb <command> [flags] [args]")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "  %-32s %s\n", commands[name].usage, commands[name].about)
	}
}

func run(args []string) int {
	if len(args) == 0 {
		usage(stderr)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
			usage(stdout)
			return 0
		}
		_, _ = fmt.Fprintf(stderr, "Unknown command %q\n\n", args[0])
		usage(stderr)
		return 1
	}

	err := cmd.run(args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp), errors.Is(err, common.ErrMissingInput):
		return 0
	case errors.Is(err, errReported):
		return 1
	case errors.Is(err, common.ErrFileNotFound):
		_, _ = fmt.Fprintln(stderr, err.Error())
		return 1
	default:
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}
