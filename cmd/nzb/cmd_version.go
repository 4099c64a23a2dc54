package main

import (
	"github.com/t2bot/nzbkit/common/version"
)

func runVersion(args []string) error {
	fset := newFlagSet("version", "version")
	if err := fset.Parse(args); err != nil {
		return err
	}
	version.Print(stdout, false)
	return nil
}
