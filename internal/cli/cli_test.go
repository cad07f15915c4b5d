package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	deperrors "github.com/matzehuels/deprule/pkg/errors"
	"github.com/matzehuels/deprule/pkg/observability"
	"github.com/matzehuels/deprule/pkg/report"
	"github.com/matzehuels/deprule/pkg/rules"
)

const fixture = "testdata/tangled.json"

const layeringRules = `[rules]
rule = [{ package = "domain", forbidden_dependencies = ["infra"] }]
`

var workspaceTrees = strings.Join([]string{
	"app v0.1.0 (/work/tangled/app)",
	"├── domain v0.1.0 (/work/tangled/domain)",
	"│   └── serde v1.0.200",
	"│   [dev-dependencies]",
	"│   └── infra v0.1.0 (/work/tangled/infra) (!)",
	"│       ├── tracing-lite v0.2.0 (git+https://github.com/example/tracing-lite?rev=abc123#abc123def)",
	"│       ├── domain v0.1.0 (/work/tangled/domain) (*)",
	"│       └── serde v1.0.200 (*)",
	"│       [build-dependencies]",
	"│       └── cc v1.0.90",
	"└── infra v0.1.0 (/work/tangled/infra) (*)",
	"[dev-dependencies]",
	"└── pretty_assertions v1.4.0",
	"domain v0.1.0 (/work/tangled/domain)",
	"└── serde v1.0.200",
	"[dev-dependencies]",
	"└── infra v0.1.0 (/work/tangled/infra) (!)",
	"    ├── tracing-lite v0.2.0 (git+https://github.com/example/tracing-lite?rev=abc123#abc123def)",
	"    ├── domain v0.1.0 (/work/tangled/domain) (*)",
	"    └── serde v1.0.200 (*)",
	"    [build-dependencies]",
	"    └── cc v1.0.90",
	"infra v0.1.0 (/work/tangled/infra)",
	"├── tracing-lite v0.2.0 (git+https://github.com/example/tracing-lite?rev=abc123#abc123def)",
	"├── domain v0.1.0 (/work/tangled/domain)",
	"│   └── serde v1.0.200",
	"│   [dev-dependencies]",
	"│   └── infra v0.1.0 (/work/tangled/infra) (!) (*)",
	"└── serde v1.0.200 (*)",
	"[build-dependencies]",
	"└── cc v1.0.90",
}, "\n") + "\n"

// writeRules writes a rules file into a temporary directory.
func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dependency_rules.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the command line against the fixture workspace.
func execute(t *testing.T, rulesPath string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--metadata-file", fixture, "--rules", rulesPath, "--color", "never"}, args...))

	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCheck(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)

	for _, args := range [][]string{nil, {"check"}} {
		t.Run(fmt.Sprint(args), func(t *testing.T) {
			stdout, stderr, err := execute(t, rulesPath, args...)
			if !errors.Is(err, ErrViolation) {
				t.Fatalf("error = %v, want ErrViolation", err)
			}
			if ExitCode(err) != ExitViolation {
				t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitViolation)
			}
			if stdout != workspaceTrees {
				t.Errorf("stdout mismatch\ngot:\n%s\nwant:\n%s", stdout, workspaceTrees)
			}
			for _, want := range []string{"dependency rule violations found", "3 roots", "3 violations", "domain:0.1.0 → infra:0.1.0"} {
				if !strings.Contains(stderr, want) {
					t.Errorf("stderr missing %q:\n%s", want, stderr)
				}
			}
		})
	}
}

func TestCheckClean(t *testing.T) {
	rulesPath := writeRules(t, "[rules]\nrule = []\n")

	stdout, stderr, err := execute(t, rulesPath)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if strings.Contains(stdout, "(!)") {
		t.Errorf("violation marked without rules:\n%s", stdout)
	}
	if !strings.Contains(stderr, "no forbidden dependencies") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestCheckAllowedEdges(t *testing.T) {
	// serde is never a dependent of infra, so nothing breaks.
	rulesPath := writeRules(t, `[[rules.rule]]
package = "serde"
forbidden_dependencies = ["infra"]
`)
	if _, _, err := execute(t, rulesPath); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
}

func TestTree(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "package",
			args: []string{"tree", "-p", "serde"},
			want: "serde v1.0.200\n",
		},
		{
			name: "package with version",
			args: []string{"tree", "--package", "domain:0.1.0", "--no-dev-dependencies"},
			want: "domain v0.1.0 (/work/tangled/domain)\n└── serde v1.0.200\n",
		},
		{
			name: "inverted",
			args: []string{"tree", "-i", "serde"},
			want: strings.Join([]string{
				"serde v1.0.200",
				"├── domain v0.1.0 (/work/tangled/domain)",
				"│   ├── app v0.1.0 (/work/tangled/app)",
				"│   └── infra v0.1.0 (/work/tangled/infra)",
				"│       └── app v0.1.0 (/work/tangled/app) (*)",
				"│       [dev-dependencies]",
				"│       └── domain v0.1.0 (/work/tangled/domain) (!) (*)",
				"└── infra v0.1.0 (/work/tangled/infra) (*)",
			}, "\n") + "\n",
		},
		{
			name: "depth prefix",
			args: []string{"tree", "-p", "domain", "--prefix", "depth", "--no-dev-dependencies"},
			want: "0domain v0.1.0 (/work/tangled/domain)\n1serde v1.0.200\n",
		},
		{
			name: "format",
			args: []string{"tree", "-p", "serde", "--format", "{p} {{{l}}}"},
			want: "serde v1.0.200 {MIT OR Apache-2.0}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, rulesPath, tt.args...)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if stdout != tt.want {
				t.Errorf("stdout mismatch\ngot:\n%s\nwant:\n%s", stdout, tt.want)
			}
		})
	}
}

func TestTreeDoesNotFail(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)

	stdout, stderr, err := execute(t, rulesPath, "tree")
	if err != nil {
		t.Fatalf("error = %v, want nil", err)
	}
	if stdout != workspaceTrees {
		t.Errorf("stdout mismatch\ngot:\n%s\nwant:\n%s", stdout, workspaceTrees)
	}
	if !strings.Contains(stderr, "3 forbidden dependencies") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestColorAlways(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)

	stdout, _, _ := execute(t, rulesPath, "-p", "domain", "--color", "always")
	if strings.Contains(stdout, "(!)") {
		t.Errorf("marker used with --color always:\n%s", stdout)
	}
	if !strings.Contains(stdout, "\x1b[") {
		t.Errorf("no escape codes with --color always:\n%q", stdout)
	}
}

func TestErrors(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)

	tests := []struct {
		name  string
		rules string
		args  []string
		code  deperrors.Code
	}{
		{"unknown package", rulesPath, []string{"-p", "nosuch"}, deperrors.ErrCodePackageNotFound},
		{"bad version", rulesPath, []string{"-p", "serde:1.0"}, deperrors.ErrCodeInvalidVersion},
		{"invalid package name", rulesPath, []string{"-p", "../x"}, deperrors.ErrCodeInvalidPackage},
		{"unknown placeholder", rulesPath, []string{"--format", "{x}"}, deperrors.ErrCodeUnsupportedPlaceholder},
		{"malformed template", rulesPath, []string{"--format", "{p"}, deperrors.ErrCodeMalformedTemplate},
		{"bad charset", rulesPath, []string{"--charset", "ebcdic"}, deperrors.ErrCodeInvalidInput},
		{"missing rules", filepath.Join(t.TempDir(), "nope.toml"), nil, deperrors.ErrCodeRulesIO},
		{"bad rules", writeRules(t, "[rules]\n"), nil, deperrors.ErrCodeRulesSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.rules, tt.args...)
			if !deperrors.Is(err, tt.code) {
				t.Fatalf("error = %v, want code %s", err, tt.code)
			}
			if ExitCode(err) != ExitError {
				t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitError)
			}
			if stdout != "" {
				t.Errorf("output written before failing:\n%s", stdout)
			}
		})
	}
}

func TestPackageAndInvertExclusive(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)
	if _, _, err := execute(t, rulesPath, "tree", "-p", "app", "-i", "serde"); err == nil {
		t.Error("-p together with -i succeeded")
	}
}

func TestReport(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)
	path := filepath.Join(t.TempDir(), "report.json")

	_, _, err := execute(t, rulesPath, "--report", path)
	if !errors.Is(err, ErrViolation) {
		t.Fatalf("error = %v, want ErrViolation", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if r.Status != "violation" || len(r.Roots) != 3 || len(r.Violations) != 3 {
		t.Errorf("report = %+v", r)
	}
	want := report.Violation{From: "path+file:///work/tangled/domain#0.1.0", To: "path+file:///work/tangled/infra#0.1.0"}
	for _, v := range r.Violations {
		if v != want {
			t.Errorf("violation = %+v, want %+v", v, want)
		}
	}
}

func TestGraph(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)

	stdout, _, err := execute(t, rulesPath, "graph")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	for _, want := range []string{
		"digraph G {",
		`"path+file:///work/tangled/domain#0.1.0" -> "path+file:///work/tangled/infra#0.1.0" [style=dashed, color=red, penwidth=3];`,
		"fillcolor=lightblue",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("DOT missing %q:\n%s", want, stdout)
		}
	}
}

func TestGraphFile(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)
	dir := t.TempDir()

	out := filepath.Join(dir, "deps.dot")
	if _, _, err := execute(t, rulesPath, "graph", "-o", out); err != nil {
		t.Fatalf("error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("%s does not hold DOT:\n%s", out, data)
	}

	_, _, err = execute(t, rulesPath, "graph", "-o", filepath.Join(dir, "deps.txt"))
	if !deperrors.Is(err, deperrors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestRulesList(t *testing.T) {
	rulesPath := writeRules(t, `[[rules.rule]]
package = "domain"
forbidden_dependencies = ["infra", "app"]
`)

	stdout, _, err := execute(t, rulesPath, "rules", "list")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	for _, want := range []string{"PACKAGE", "FORBIDDEN DEPENDENCIES", "domain", "app, infra"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("table missing %q:\n%s", want, stdout)
		}
	}

	empty := writeRules(t, "[rules]\nrule = []\n")
	stdout, _, err = execute(t, empty, "rules", "list")
	if err != nil || stdout != "(0 rules)\n" {
		t.Errorf("empty list = %q, %v", stdout, err)
	}
}

func TestRulesFmt(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)

	stdout, _, err := execute(t, rulesPath, "rules", "fmt")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(stdout, "[[rules.rule]]") {
		t.Errorf("fmt output not canonical:\n%s", stdout)
	}
	// Without -w the file stays as it was.
	if data, _ := os.ReadFile(rulesPath); string(data) != layeringRules {
		t.Errorf("fmt without -w changed the file:\n%s", data)
	}

	if _, _, err := execute(t, rulesPath, "rules", "fmt", "-w"); err != nil {
		t.Fatalf("fmt -w error = %v", err)
	}
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != stdout {
		t.Errorf("written file differs from fmt output:\n%s", data)
	}
	got, err := rules.Parse(data)
	if err != nil {
		t.Fatalf("rewritten file does not parse: %v", err)
	}
	if !got.Equal(rules.New(rules.NewRule("domain", "infra"))) {
		t.Errorf("rewritten rules = %+v", got.Rules())
	}

	_, stderr, err := execute(t, rulesPath, "rules", "fmt", "-w")
	if err != nil || !strings.Contains(stderr, "is formatted") {
		t.Errorf("second fmt -w = %q, %v", stderr, err)
	}
}

func TestCompletion(t *testing.T) {
	rulesPath := writeRules(t, layeringRules)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		stdout, _, err := execute(t, rulesPath, "completion", shell)
		if err != nil || !strings.Contains(stdout, "deprule") {
			t.Errorf("completion %s: err = %v, %d bytes", shell, err, len(stdout))
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"violation", ErrViolation, ExitViolation},
		{"wrapped violation", fmt.Errorf("check: %w", ErrViolation), ExitViolation},
		{"cancelled", context.Canceled, ExitCancelled},
		{"coded", deperrors.New(deperrors.ErrCodeRulesIO, "read"), ExitError},
		{"plain", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"violation", ErrViolation, ""},
		{"cancelled", context.Canceled, "interrupted"},
		{"coded", deperrors.New(deperrors.ErrCodePackageNotFound, "no crates found for package `x`"), "error[PACKAGE_NOT_FOUND]: no crates found for package `x`"},
		{"plain", errors.New("boom"), "error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintError(&buf, tt.err)
			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("PrintError wrote %q", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("PrintError = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}

type recordingHooks struct {
	observability.NoopCheckHooks
	roots, violations int
	err               error
}

func (h *recordingHooks) OnCheckComplete(_ context.Context, roots, violations int, _ time.Duration, err error) {
	h.roots, h.violations, h.err = roots, violations, err
}

func TestCheckHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCheckHooks(hooks)
	t.Cleanup(observability.Reset)

	rulesPath := writeRules(t, layeringRules)
	if _, _, err := execute(t, rulesPath, "tree"); err != nil {
		t.Fatalf("error = %v", err)
	}
	if hooks.roots != 3 || hooks.violations != 3 || hooks.err != nil {
		t.Errorf("OnCheckComplete got roots=%d violations=%d err=%v", hooks.roots, hooks.violations, hooks.err)
	}
}
