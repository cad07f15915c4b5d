package metadata

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strings"

	"github.com/matzehuels/deprule/pkg/errors"
)

// Options mirrors the `cargo metadata` flags that shape the resolved graph.
type Options struct {
	Quiet             bool
	Features          string
	AllFeatures       bool
	NoDefaultFeatures bool
	// AllTargets keeps dependencies of every platform. When false the graph
	// is filtered to Target, or to the host triple if Target is empty.
	AllTargets    bool
	Target        string
	ManifestPath  string
	Verbose       int
	Color         string
	Frozen        bool
	Locked        bool
	Offline       bool
	UnstableFlags []string
}

// DefaultOptions returns the options deprule uses when no flag is given:
// all features and all targets, so a rule is checked against every edge
// that can exist in any build.
func DefaultOptions() Options {
	return Options{
		AllFeatures: true,
		AllTargets:  true,
	}
}

// Collect runs `cargo metadata` and decodes its output.
//
// The cargo binary is taken from $CARGO (set when running as a cargo
// subcommand) and falls back to "cargo" on PATH. Stderr of the subprocess is
// passed through so cargo's own progress and errors stay visible.
func Collect(ctx context.Context, opts Options) (*Metadata, error) {
	args, err := Args(ctx, opts)
	if err != nil {
		return nil, err
	}

	out, err := output(ctx, cargoBinary(), args, "cargo metadata")
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(out))
}

// Args builds the argument vector for `cargo metadata`.
func Args(ctx context.Context, opts Options) ([]string, error) {
	args := []string{"metadata", "--format-version", "1"}

	if opts.Quiet {
		args = append(args, "-q")
	}
	if opts.Features != "" {
		args = append(args, "--features", opts.Features)
	}
	if opts.AllFeatures {
		args = append(args, "--all-features")
	}
	if opts.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}

	if !opts.AllTargets {
		target := opts.Target
		if target == "" {
			host, err := DefaultTarget(ctx)
			if err != nil {
				return nil, err
			}
			target = host
		}
		args = append(args, "--filter-platform", target)
	}

	if opts.ManifestPath != "" {
		args = append(args, "--manifest-path", opts.ManifestPath)
	}
	for i := 0; i < opts.Verbose; i++ {
		args = append(args, "-v")
	}
	if opts.Color != "" {
		args = append(args, "--color", opts.Color)
	}
	if opts.Frozen {
		args = append(args, "--frozen")
	}
	if opts.Locked {
		args = append(args, "--locked")
	}
	if opts.Offline {
		args = append(args, "--offline")
	}
	for _, flag := range opts.UnstableFlags {
		args = append(args, "-Z", flag)
	}

	return args, nil
}

// DefaultTarget returns the host target triple reported by `rustc -Vv`.
func DefaultTarget(ctx context.Context) (string, error) {
	rustc := os.Getenv("RUSTC")
	if rustc == "" {
		rustc = "rustc"
	}

	out, err := output(ctx, rustc, []string{"-Vv"}, "rustc")
	if err != nil {
		return "", err
	}
	return parseHost(string(out))
}

func parseHost(out string) (string, error) {
	const prefix = "host: "
	for _, line := range strings.Split(out, "\n") {
		if host, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(host), nil
		}
	}
	return "", errors.New(errors.ErrCodeMetadata, "host missing from rustc output")
}

func cargoBinary() string {
	if cargo := os.Getenv("CARGO"); cargo != "" {
		return cargo
	}
	return "cargo"
}

func output(ctx context.Context, name string, args []string, job string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return nil, errors.New(errors.ErrCodeMetadata, "%s returned %s", job, exitErr.ProcessState)
		}
		return nil, errors.Wrap(errors.ErrCodeMetadata, err, "error running %s", job)
	}
	return out, nil
}
