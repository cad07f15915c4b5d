package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deprule/internal/config"
	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/format"
	"github.com/matzehuels/deprule/pkg/metadata"
	"github.com/matzehuels/deprule/pkg/observability"
	"github.com/matzehuels/deprule/pkg/rules"
	"github.com/matzehuels/deprule/pkg/workspace"
)

// session is everything a command needs about the workspace: the settings,
// the resolved graph and the rules. It is built once per invocation.
type session struct {
	cfg       *config.Config
	manifest  string
	meta      *metadata.Metadata
	graph     *depgraph.Graph
	members   []depgraph.PackageID
	rulesPath string
	rules     *rules.DependencyRules
}

// openSession loads the configuration, the dependency graph and the rules.
func openSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	if err := s.loadMetadata(ctx, cmd); err != nil {
		return nil, err
	}

	prog := newProgress(logger)
	s.graph, err = depgraph.Build(s.meta, depgraph.BuildOptions{NoDevDependencies: cfg.NoDevDependencies})
	if err != nil {
		return nil, err
	}
	prog.done("built graph", "packages", s.graph.NodeCount(), "edges", s.graph.EdgeCount())

	for _, id := range s.meta.WorkspaceMembers {
		s.members = append(s.members, depgraph.PackageID(id))
	}

	if err := s.loadRules(); err != nil {
		return nil, err
	}
	for _, w := range s.rules.Validate(s.graph) {
		logger.Warn(w)
	}
	logger.Debug("session ready", "inputs", s.describe(), "rules", s.rules.Len())
	return s, nil
}

// loadConfig reads the layered configuration. The config file is searched
// next to the manifest given on the command line, or in the working
// directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	logger := loggerFromContext(cmd.Context())
	flags := cmd.Flags()

	explicit, _ := flags.GetString("config")
	dir := "."
	if manifest, _ := flags.GetString("manifest-path"); manifest != "" {
		dir = filepath.Dir(manifest)
	}

	cfg, used, err := config.Load(config.LoadOptions{
		ConfigFile: explicit,
		SearchDir:  dir,
		Flags:      flags,
	})
	if err != nil {
		return nil, err
	}
	if used != "" {
		logger.Debug("loaded config", "file", used)
	}
	return cfg, nil
}

func (s *session) loadMetadata(ctx context.Context, cmd *cobra.Command) error {
	logger := loggerFromContext(ctx)
	cfg := s.cfg

	if cfg.MetadataFile != "" {
		meta, err := metadata.ReadFile(cfg.MetadataFile)
		if err != nil {
			return err
		}
		s.meta = meta
		s.manifest = filepath.Join(meta.WorkspaceRoot, workspace.ManifestFileName)
		if cfg.ManifestPath != "" {
			if s.manifest, err = workspace.ManifestPath(cfg.ManifestPath); err != nil {
				return err
			}
		}
		logger.Debug("read metadata", "file", cfg.MetadataFile, "packages", len(meta.Packages))
		return nil
	}

	manifest, err := workspace.ManifestPath(cfg.ManifestPath)
	if err != nil {
		return err
	}
	s.manifest = manifest

	opts := s.metadataOptions()
	stderr := cmd.ErrOrStderr()
	spin := isTerminal(stderr) && !cfg.Verbose
	opts.Quiet = spin

	hooks := observability.Check()
	hooks.OnCollectStart(ctx, manifest)
	prog := newProgress(logger)
	s.meta, err = withSpinner(ctx, stderr, "Running cargo metadata...", func() (*metadata.Metadata, error) {
		return metadata.Collect(ctx, opts)
	})
	if err != nil {
		hooks.OnCollectComplete(ctx, manifest, 0, time.Since(prog.start), err)
		return err
	}
	hooks.OnCollectComplete(ctx, manifest, len(s.meta.Packages), time.Since(prog.start), nil)
	prog.done("collected metadata", "manifest", manifest)
	return nil
}

// metadataOptions maps the settings onto the cargo metadata flags.
func (s *session) metadataOptions() metadata.Options {
	cfg := s.cfg
	opts := metadata.DefaultOptions()
	opts.ManifestPath = s.manifest
	opts.Features = strings.Join(cfg.Features, ",")
	opts.AllFeatures = cfg.AllFeatures
	opts.NoDefaultFeatures = cfg.NoDefaultFeatures
	if cfg.Target != "" {
		opts.AllTargets = false
		opts.Target = cfg.Target
	}
	opts.Frozen = cfg.Frozen
	opts.Locked = cfg.Locked
	opts.Offline = cfg.Offline
	if cfg.Verbose {
		opts.Verbose = 1
	}
	return opts
}

func (s *session) loadRules() error {
	s.rulesPath = s.cfg.Rules
	if s.rulesPath == "" {
		s.rulesPath = workspace.RulesPath(s.manifest)
	}
	r, err := rules.Load(s.rulesPath)
	if err != nil {
		return err
	}
	s.rules = r
	return nil
}

// pattern compiles the package format with the highlight matching the
// writer the tree goes to.
func (s *session) pattern(cmd *cobra.Command) (*format.Pattern, error) {
	return format.Compile(s.cfg.Format, format.WithHighlight(highlighter(cmd.OutOrStdout(), s.cfg.Color)))
}

// relPath shortens path relative to the working directory for display.
func relPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// describe names the inputs of s for debug logs.
func (s *session) describe() string {
	return fmt.Sprintf("manifest=%s rules=%s", relPath(s.manifest), relPath(s.rulesPath))
}
