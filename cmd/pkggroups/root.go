package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bcnelson/pkg-groups/internal/hujsonfile"
	"github.com/bcnelson/pkg-groups/internal/logging"
	"github.com/bcnelson/pkg-groups/internal/model"
)

type rootFlags struct {
	record   string
	logLevel string
	json     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "pkggroups",
		Short: "Inspect package group records",
		Long: `pkggroups reads a group record (JSON, comments and trailing commas allowed)
and reports what it resolves to.

A record holds groups of editor packages, meta-groups that enable or disable
other groups, and the top-level enabled and disabled lists.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.record, "record", "r", "", "group record file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "print JSON instead of text")

	root.AddCommand(
		newValidateCmd(flags),
		newGroupsCmd(flags),
		newStatesCmd(flags),
		newDiffCmd(flags),
		newKeygenCmd(),
	)
	return root
}

func (f *rootFlags) logger() (*zap.Logger, error) {
	return logging.New(logging.Config{Level: f.logLevel})
}

// loadRecord reads the --record file into a store.
func (f *rootFlags) loadRecord() (*model.Store, error) {
	if f.record == "" {
		return nil, fmt.Errorf("--record is required")
	}
	data, err := hujsonfile.Read(f.record)
	if err != nil {
		return nil, err
	}
	store, err := model.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.record, err)
	}
	return store, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
