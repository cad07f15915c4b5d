package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/deprule/pkg/buildinfo"
	"github.com/matzehuels/deprule/pkg/format"
)

// RootCommand creates the root cobra command with all subcommands registered.
// Running the root command without a subcommand performs a check.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.checkCommand()
	root.Use = appName
	root.Short = "deprule enforces dependency rules in Cargo workspaces"
	root.Long = `deprule prints the dependency tree of every workspace member and marks
each dependency that a rule in dependency_rules.toml forbids. The check fails
when at least one forbidden dependency exists.

Rules live next to the workspace manifest:

  [[rules.rule]]
  package = "domain"
  forbidden_dependencies = ["infra"]`
	root.Version = buildinfo.Version
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.SetVersionTemplate(buildinfo.Template())
	addSharedFlags(root)

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			c.SetLogLevel(LogDebug)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.rulesCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// addSharedFlags registers the flags every command understands. Their
// values are read through the layered config, never from variables here.
func addSharedFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()

	f.String("config", "", "config file (default: deprule.yaml next to the manifest)")
	f.String("manifest-path", "", "path to Cargo.toml")
	f.String("rules", "", "rules file (default: dependency_rules.toml next to the manifest)")
	f.String("metadata-file", "", "read saved `cargo metadata --format-version 1` output instead of running cargo")
	f.String("report", "", "write a JSON report to this file")

	f.String("format", format.DefaultTemplate, "format string per package: {p} package, {l} license, {r} repository")
	f.String("charset", "utf8", "character set for tree glyphs: utf8, ascii")
	f.String("prefix", "indent", "line prefix: indent, depth, none")
	f.Bool("all", false, "expand repeated dependencies")
	f.String("color", "auto", "highlight violations in color: auto, always, never")

	f.Bool("no-dev-dependencies", false, "skip dev-dependencies")
	f.StringSlice("features", nil, "features to activate")
	f.Bool("all-features", true, "activate all available features")
	f.Bool("no-default-features", false, "do not activate the default feature")
	f.String("target", "", "only include dependencies of this target triple")
	f.Bool("frozen", false, "require Cargo.lock and cache are up to date")
	f.Bool("locked", false, "require Cargo.lock is up to date")
	f.Bool("offline", false, "run without accessing the network")

	f.BoolP("verbose", "v", false, "enable verbose logging")
}
