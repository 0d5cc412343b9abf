// Command pkggroups inspects a group record file offline: it validates the
// record, lists its groups, resolves package states and diffs them against a
// registry file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
