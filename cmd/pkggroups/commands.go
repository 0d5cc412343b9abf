package main

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bcnelson/pkg-groups/internal/auth"
	"github.com/bcnelson/pkg-groups/internal/domain"
	"github.com/bcnelson/pkg-groups/internal/registry"
	"github.com/bcnelson/pkg-groups/internal/validation"
)

func newValidateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that a record parses, has valid names and resolves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.loadRecord()
			if err != nil {
				return err
			}
			rec := store.Serialize()
			if errs := validation.ValidateRecord(rec); errs.HasErrors() {
				for _, e := range errs {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %q: %s\n", e.Field, e.Value, e.Message)
				}
				return fmt.Errorf("%d invalid entries", len(errs))
			}
			// Resolution finds cyclic meta-groups.
			if _, err := store.PackageStates(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d groups, %d meta-groups\n", len(rec.Groups), len(rec.Metas))
			return nil
		},
	}
}

type groupLine struct {
	Name    string          `json:"name"`
	Kind    domain.Kind     `json:"kind"`
	Top     domain.TopState `json:"top,omitempty"`
	State   domain.State    `json:"state,omitempty"`
	Members []string        `json:"members"`
}

func newGroupsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List groups and meta-groups with their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.loadRecord()
			if err != nil {
				return err
			}

			var lines []groupLine
			for name := range store.GroupNames() {
				g, _ := store.Group(name)
				lines = append(lines, groupLine{Name: name, Kind: domain.KindGroup, Members: g.Packages()})
			}
			for name := range store.MetaNames() {
				m, _ := store.Meta(name)
				lines = append(lines, groupLine{Name: name, Kind: domain.KindMeta, Members: slices.Collect(m.ReferencedNames())})
			}
			for i := range lines {
				lines[i].Top = store.TopState(lines[i].Name)
				st, _, err := store.GroupState(lines[i].Name)
				if err != nil {
					return err
				}
				lines[i].State = st
			}

			if flags.json {
				if lines == nil {
					lines = []groupLine{}
				}
				return writeJSON(cmd.OutOrStdout(), lines)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tTOP\tSTATE\tMEMBERS")
			for _, l := range lines {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", l.Name, l.Kind, orDash(string(l.Top)), orDash(string(l.State)), len(l.Members))
			}
			return tw.Flush()
		},
	}
}

func newStatesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "states",
		Short: "Print the resolved state of every referenced package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.loadRecord()
			if err != nil {
				return err
			}
			states, err := store.PackageStates()
			if err != nil {
				return err
			}

			if flags.json {
				return writeJSON(cmd.OutOrStdout(), states)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, pkg := range sortedKeys(states) {
				fmt.Fprintf(tw, "%s\t%s\n", pkg, states[pkg])
			}
			return tw.Flush()
		},
	}
}

func newDiffCmd(flags *rootFlags) *cobra.Command {
	var (
		registryFile   string
		includeBundled bool
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare resolved states with a registry file",
		Long: `diff compares the resolved package states with a registry file of the form
{"available": [...], "bundled": [...], "disabled": [...]}.

Exit status is 0 even when there are differences.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if registryFile == "" {
				return fmt.Errorf("--registry is required")
			}
			logger, err := flags.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, err := flags.loadRecord()
			if err != nil {
				return err
			}
			reg, err := registry.NewFileShim(cmd.Context(), registryFile, logger)
			if err != nil {
				return err
			}
			diff, err := store.Differences(reg, includeBundled)
			if err != nil {
				return err
			}
			logger.Debug("computed differences",
				zap.Int("enabled", len(diff.Enabled)),
				zap.Int("disabled", len(diff.Disabled)),
				zap.Int("missing", len(diff.Missing)))

			resp := diff.Response()
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			if diff.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "no differences")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, pkg := range resp.Disabled {
				fmt.Fprintf(out, "+ %s\t(disabled, should be enabled)\n", pkg)
			}
			for _, pkg := range resp.Enabled {
				fmt.Fprintf(out, "- %s\t(enabled, should be disabled)\n", pkg)
			}
			for _, pkg := range resp.Missing {
				fmt.Fprintf(out, "? %s\t(not installed)\n", pkg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&registryFile, "registry", "", "registry file")
	cmd.Flags().BoolVar(&includeBundled, "include-bundled", false, "also compare bundled packages")
	return cmd
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a random API key for API_KEYS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateSecureString(32)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func sortedKeys(m map[string]domain.State) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
