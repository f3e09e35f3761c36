// Package depsig resolves the trimmed, public-surface-only signatures of
// a file's immediate dependencies, for inclusion in prompts built by the
// Guidance Generator and Golden Capture Engine (spec §4.2). It never
// raises: a dependency that cannot be read or parsed simply contributes
// an empty signature, since one noisy file must never abort a whole
// mapping.
package depsig

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phrazzld/ctgen/internal/model"
)

// Resolver answers signature queries against a fixed dependency graph and
// repo root. One Resolver is built per run; it holds no mutable state.
type Resolver struct {
	graph     model.DependencyGraph
	repoRoot  string
	adj       map[string][]string
	extByPath map[string]string
}

// New builds a Resolver from graph, indexing edges by source path so
// Resolve is an O(out-degree) lookup rather than a full scan per call.
func New(graph model.DependencyGraph, repoRoot string) *Resolver {
	adj := make(map[string][]string)
	for _, e := range graph.Edges {
		adj[e.Src] = append(adj[e.Src], e.Dst)
	}
	extByPath := make(map[string]string)
	for _, n := range graph.Nodes {
		extByPath[n.Path] = n.Ext
	}
	return &Resolver{graph: graph, repoRoot: repoRoot, adj: adj, extByPath: extByPath}
}

// Resolve returns a signature for every depth-1 dependency of file. Depth
// is bounded to 1 per §4.2: dependencies-of-dependencies are never
// followed, to keep prompt size predictable.
func (r *Resolver) Resolve(file string) map[string]string {
	out := make(map[string]string)
	for _, dep := range r.adj[file] {
		out[dep] = r.signatureFor(dep)
	}
	return out
}

// signatureFor reads dep and extracts its public declarations. Any
// failure — missing file, unreadable, unrecognized extension — yields
// the empty string rather than an error, per the fail-soft contract.
func (r *Resolver) signatureFor(dep string) string {
	full := filepath.Join(r.repoRoot, dep)
	content, err := os.ReadFile(full)
	if err != nil {
		return ""
	}
	ext := r.extByPath[dep]
	if ext == "" {
		ext = filepath.Ext(dep)
	}
	extractor := extractorFor(ext)
	if extractor == nil {
		return ""
	}
	return extractor(string(content))
}

// extractorFor maps a file extension to the regex-based declaration
// extractor for its language family. Unrecognized extensions have no
// extractor, which is itself a fail-soft outcome, not an error.
func extractorFor(ext string) func(string) string {
	switch strings.ToLower(ext) {
	case ".py":
		return extractPythonSignatures
	case ".go":
		return extractGoSignatures
	default:
		return nil
	}
}

var (
	pyDefRe   = regexp.MustCompile(`(?m)^(def\s+\w+\([^)]*\)(?:\s*->\s*[^:]+)?\s*:)`)
	pyClassRe = regexp.MustCompile(`(?m)^(class\s+\w+(?:\([^)]*\))?\s*:)`)
)

// extractPythonSignatures pulls every module-level `def`/`class` line,
// skipping indented (non-public, nested) definitions. Only the signature
// line is kept, not the body.
func extractPythonSignatures(src string) string {
	var lines []string
	for _, m := range pyDefRe.FindAllStringSubmatch(src, -1) {
		lines = append(lines, strings.TrimSuffix(m[1], ":"))
	}
	for _, m := range pyClassRe.FindAllStringSubmatch(src, -1) {
		lines = append(lines, strings.TrimSuffix(m[1], ":"))
	}
	return strings.Join(lines, "\n")
}

var (
	goFuncRe = regexp.MustCompile(`(?m)^func\s+(\([^)]*\)\s+)?([A-Z]\w*)\s*\(([^)]*)\)([^{]*)\{`)
	goTypeRe = regexp.MustCompile(`(?m)^type\s+([A-Z]\w*)\s+(struct|interface)\s*\{`)
)

// extractGoSignatures pulls exported (capitalized) top-level func and
// type declarations, matching Go's own exportedness convention.
func extractGoSignatures(src string) string {
	var lines []string
	for _, m := range goFuncRe.FindAllStringSubmatch(src, -1) {
		recv, name, params, ret := m[1], m[2], m[3], strings.TrimSpace(m[4])
		sig := "func " + recv + name + "(" + params + ")"
		if ret != "" {
			sig += " " + ret
		}
		lines = append(lines, sig)
	}
	for _, m := range goTypeRe.FindAllStringSubmatch(src, -1) {
		lines = append(lines, "type "+m[1]+" "+m[2])
	}
	return strings.Join(lines, "\n")
}
