package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/observability"
	"github.com/matzehuels/deprule/pkg/report"
	"github.com/matzehuels/deprule/pkg/tree"
	"github.com/matzehuels/deprule/pkg/workspace"
)

// treeOpts holds the flags local to check and tree.
type treeOpts struct {
	packages []string
	invert   []string
	strict   bool
}

// checkCommand renders every root and fails when a rule is broken.
func (c *CLI) checkCommand() *cobra.Command {
	opts := treeOpts{strict: true}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the workspace against its dependency rules",
		Long: `Print the dependency tree of every workspace member, or of the packages
given with -p, and mark each forbidden dependency. Exits with status 1 when a
rule is broken.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, opts)
		},
	}

	addTreeFlags(cmd, &opts)
	return cmd
}

// treeCommand renders like check but never fails on violations.
func (c *CLI) treeCommand() *cobra.Command {
	var opts treeOpts

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the dependency tree with forbidden dependencies marked",
		Long: `Print the dependency tree like check, but exit with status 0 even when a
rule is broken.

Use -i to print the packages that depend on a package instead.`,
		Example: `  deprule tree -p domain
  deprule tree -i serde:1.0.200 --charset ascii`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, opts)
		},
	}

	addTreeFlags(cmd, &opts)
	return cmd
}

func addTreeFlags(cmd *cobra.Command, opts *treeOpts) {
	cmd.Flags().StringArrayVarP(&opts.packages, "package", "p", nil, "package to print the tree for, as NAME or NAME:VERSION (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.invert, "invert", "i", nil, "print the dependents of this package, as NAME or NAME:VERSION (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("package", "invert")
}

// runTree prints the trees, writes the report and maps the outcome to an
// error.
func runTree(cmd *cobra.Command, opts treeOpts) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	pattern, err := s.pattern(cmd)
	if err != nil {
		return err
	}

	printOpts := s.cfg.TreeOptions()
	specs := opts.packages
	if len(opts.invert) > 0 {
		printOpts.Direction = depgraph.Incoming
		specs = opts.invert
	}

	roots, err := workspace.Roots(s.graph, s.members, specs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	hooks := observability.Check()
	hooks.OnCheckStart(ctx, len(roots))
	start := time.Now()

	printer := tree.NewPrinter(cmd.OutOrStdout(), s.graph, s.rules, pattern, printOpts)
	status, err := printer.Print(roots)
	violations := printer.Violations()
	hooks.OnCheckComplete(ctx, len(roots), len(violations), time.Since(start), err)
	if err != nil {
		return err
	}

	if s.cfg.Report != "" {
		if err := report.Export(report.New(roots, status, violations), s.cfg.Report); err != nil {
			return err
		}
		loggerFromContext(ctx).Debug("wrote report", "file", s.cfg.Report)
	}

	stderr := cmd.ErrOrStderr()
	if !opts.strict {
		if status.Failed() {
			printWarning(stderr, "%d forbidden dependencies", len(violations))
		}
		return nil
	}

	printSummary(stderr, len(roots), len(violations))
	for _, v := range violations {
		printDetail(stderr, "%s %s %s", v.From.Spec(), iconArrow, v.To.Spec())
	}
	if status.Failed() {
		return ErrViolation
	}
	return nil
}
