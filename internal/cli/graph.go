package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deprule/pkg/errors"
	"github.com/matzehuels/deprule/pkg/render/nodelink"
)

// graphOpts holds the graph command flags.
type graphOpts struct {
	output   string
	detailed bool
	scale    float64
}

// graphCommand exports the dependency graph as a node-link diagram.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the dependency graph with forbidden edges highlighted",
		Long: `Export the whole dependency graph as a Graphviz diagram. Forbidden edges
are drawn red and bold, workspace members are filled.

The format follows the extension of --output: .dot, .svg, .pdf or .png.
Without --output the DOT source is written to stdout. PDF and PNG need
rsvg-convert from librsvg.`,
		Example: `  deprule graph -o deps.svg
  deprule graph --detailed | dot -Tpng > deps.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.dot, .svg, .pdf, .png)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show source and license in nodes")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2.0, "PNG scale factor")

	return cmd
}

func runGraph(cmd *cobra.Command, opts graphOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	dot := nodelink.ToDOT(s.graph, s.rules, nodelink.Options{
		Detailed: opts.detailed,
		Members:  s.members,
	})
	if opts.output == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
		return err
	}

	prog := newProgress(logger)
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(opts.output)); ext {
	case ".dot", ".gv":
		data = []byte(dot)
	case ".svg":
		data, err = nodelink.RenderSVG(ctx, dot)
	case ".pdf":
		data, err = nodelink.RenderPDF(ctx, dot)
	case ".png":
		data, err = nodelink.RenderPNG(ctx, dot, opts.scale)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported output format %q (want .dot, .svg, .pdf or .png)", ext)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", opts.output, err)
	}

	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	prog.done("rendered graph", "file", opts.output, "bytes", len(data))
	printFile(cmd.ErrOrStderr(), opts.output)
	return nil
}
