package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/deprule/pkg/errors"
	"github.com/matzehuels/deprule/pkg/rules"
	"github.com/matzehuels/deprule/pkg/workspace"
)

// rulesCommand groups the commands that work on the rules file alone.
func (c *CLI) rulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and format the dependency rules file",
	}

	cmd.AddCommand(c.rulesListCommand())
	cmd.AddCommand(c.rulesFmtCommand())

	return cmd
}

// rulesListCommand prints the rules as a table.
func (c *CLI) rulesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the dependency rules",
		Long: `List every rule with the packages it forbids. Only the rules file is
read; cargo is not run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, r, err := loadRulesOnly(cmd)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("loaded rules", "file", path, "rules", r.Len())
			renderRulesTable(cmd, r)
			return nil
		},
	}
}

func renderRulesTable(cmd *cobra.Command, r *rules.DependencyRules) {
	w := cmd.OutOrStdout()
	if r.Len() == 0 {
		fmt.Fprintln(w, "(0 rules)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "package", "forbidden dependencies"})

	for i, rule := range r.Rules() {
		var forbidden []string
		for _, id := range rule.ForbiddenIDs() {
			forbidden = append(forbidden, string(id))
		}
		t.AppendRow(table.Row{i + 1, string(rule.Package), strings.Join(forbidden, ", ")})
	}

	t.Render()
}

// rulesFmtCommand rewrites the rules file in canonical form.
func (c *CLI) rulesFmtCommand() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Print the rules file in canonical form",
		Long: `Print the rules file in canonical form: one [[rules.rule]] table per rule
and forbidden dependencies sorted. With -w the file is rewritten in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, r, err := loadRulesOnly(cmd)
			if err != nil {
				return err
			}

			data, err := rules.Marshal(r)
			if err != nil {
				return err
			}
			if !write {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			current, err := os.ReadFile(path)
			if err == nil && bytes.Equal(current, data) {
				printSuccess(cmd.ErrOrStderr(), "%s is formatted", relPath(path))
				return nil
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeRulesIO, err, "write %s", path)
			}
			printFile(cmd.ErrOrStderr(), relPath(path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result to the rules file")
	return cmd
}

// loadRulesOnly loads the rules file without running cargo: it only needs
// the settings to find the file.
func loadRulesOnly(cmd *cobra.Command) (string, *rules.DependencyRules, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", nil, err
	}

	s := &session{cfg: cfg}
	switch {
	case cfg.Rules != "":
	case cfg.MetadataFile != "":
		if err := s.loadMetadata(cmd.Context(), cmd); err != nil {
			return "", nil, err
		}
	default:
		if s.manifest, err = workspace.ManifestPath(cfg.ManifestPath); err != nil {
			return "", nil, err
		}
	}

	if err := s.loadRules(); err != nil {
		return "", nil, err
	}
	return s.rulesPath, s.rules, nil
}
