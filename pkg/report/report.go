// Package report serializes the outcome of a dependency rule check as JSON,
// for CI systems that want more than the exit status.
//
//	r := report.New(roots, status, violations)
//	err := report.Export(r, "deprule-report.json")
//
// Every report carries a fresh run ID so repeated runs can be told apart.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/deprule/pkg/buildinfo"
	"github.com/matzehuels/deprule/pkg/depgraph"
	"github.com/matzehuels/deprule/pkg/tree"
)

// Report is the JSON document written by [WriteJSON].
type Report struct {
	RunID      string      `json:"run_id"`
	Version    string      `json:"version"`
	Time       time.Time   `json:"time"`
	Status     string      `json:"status"`
	Roots      []string    `json:"roots"`
	Violations []Violation `json:"violations"`
}

// Violation is one forbidden edge, by package ID.
type Violation struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// New builds a report. Roots and violations keep their order.
func New(roots []depgraph.PackageID, status tree.Status, violations []tree.ForbiddenEdge) *Report {
	r := &Report{
		RunID:      uuid.NewString(),
		Version:    buildinfo.Version,
		Time:       time.Now().UTC(),
		Status:     status.String(),
		Roots:      make([]string, len(roots)),
		Violations: make([]Violation, len(violations)),
	}
	for i, id := range roots {
		r.Roots[i] = string(id)
	}
	for i, v := range violations {
		r.Violations[i] = Violation{From: string(v.From.ID), To: string(v.To.ID)}
	}
	return r
}

// WriteJSON encodes r as indented JSON and writes it to w.
func WriteJSON(r *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Export writes r to a JSON file at path.
func Export(r *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
