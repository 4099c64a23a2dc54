package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/common/config"
)

func defaultConfigPath() string {
	// Docker users set this instead of passing a flag
	if p := os.Getenv("NZB_CONFIG"); p != "" {
		return p
	}
	return "nzb.yaml"
}

func newFlagSet(name string, usageLine string) *pflag.FlagSet {
	fset := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fset.SortFlags = false
	fset.SetOutput(stderr)
	fset.String("config", defaultConfigPath(), "The path to the configuration")
	fset.String("log-level", "", "Overrides the configured log level")
	fset.Usage = func() {
		help(fset, usageLine)
	}
	return fset
}

func help(fset *pflag.FlagSet, usageLine string) {
	_, _ = fmt.Fprintln(stderr, "Usage: nzb "+usageLine)
	_, _ = fmt.Fprintln(stderr)
	_, _ = fmt.Fprint(stderr, fset.FlagUsages())
}

func missingInput(fset *pflag.FlagSet, usageLine string) error {
	return missing(fset, usageLine, "Missing input")
}

func missing(fset *pflag.FlagSet, usageLine string, msg string) error {
	_, _ = fmt.Fprintln(stderr, msg)
	help(fset, usageLine)
	return common.ErrMissingInput
}

// serverFlags only touch the config for flags that were set, so YAML and
// env values survive otherwise.
type serverFlags struct {
	fset     *pflag.FlagSet
	prefix   string
	hostname *string
	port     *int
	ssl      *bool
	username *string
	password *string
}

func addServerFlags(fset *pflag.FlagSet) *serverFlags {
	return &serverFlags{
		fset:     fset,
		hostname: fset.StringP("hostname", "h", "", "NNTP server hostname"),
		port:     fset.IntP("port", "P", 0, "NNTP server port"),
		ssl:      fset.BoolP("ssl", "S", false, "Use TLS"),
		username: fset.StringP("username", "u", "", "NNTP username"),
		password: fset.StringP("password", "p", "", "NNTP password"),
	}
}

// addDestinationFlags are the long-only equivalents for the server a
// mirror posts to.
func addDestinationFlags(fset *pflag.FlagSet) *serverFlags {
	return &serverFlags{
		fset:     fset,
		prefix:   "dest-",
		hostname: fset.String("dest-hostname", "", "Destination server hostname (defaults to the source server)"),
		port:     fset.Int("dest-port", 0, "Destination server port"),
		ssl:      fset.Bool("dest-ssl", false, "Use TLS for the destination server"),
		username: fset.String("dest-username", "", "Destination server username"),
		password: fset.String("dest-password", "", "Destination server password"),
	}
}

func (f *serverFlags) changed(name string) bool {
	return f.fset.Changed(f.prefix + name)
}

func (f *serverFlags) apply(s *config.ServerConfig) {
	if f.changed("hostname") {
		s.Hostname = *f.hostname
	}
	if f.changed("port") {
		s.Port = *f.port
	}
	if f.changed("ssl") {
		s.SSL = *f.ssl
	}
	if f.changed("username") {
		s.Username = *f.username
	}
	if f.changed("password") {
		s.Password = *f.password
	}
}

// given reports whether any of the flags were given.
func (f *serverFlags) given() bool {
	for _, name := range []string{"hostname", "port", "ssl", "username", "password"} {
		if f.changed(name) {
			return true
		}
	}
	return false
}
