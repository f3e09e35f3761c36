// Package ctconfig loads the tool-style mapping-file input (spec §6) and
// resolves the LLM credentials environment variable, the way
// internal/apikey resolves provider credentials and internal/registry's
// ConfigLoader resolves its model catalog.
package ctconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phrazzld/ctgen/internal/fileutil"
	"github.com/phrazzld/ctgen/internal/model"
)

// CredentialsEnvVar is the environment variable the LLM provider expects
// to point at a credentials file. The generator never creates or
// rotates credentials; it only reads this variable (spec §6).
const CredentialsEnvVar = "CTGEN_CREDENTIALS_FILE"

// MappingSpec is one `{before, after}` pair from the mapping file, before
// being converted to a model.ModuleMapping.
type MappingSpec struct {
	Before []string `json:"before"`
	After  []string `json:"after"`
}

// MappingFile is the tool-style entry point's input document (spec §6):
// `{repo_dir, refactored_repo_dir, dep_graph_path, source_language,
// target_language, mappings:[{before, after}]}`.
type MappingFile struct {
	RepoDir           string        `json:"repo_dir"`
	RefactoredRepoDir string        `json:"refactored_repo_dir"`
	DepGraphPath      string        `json:"dep_graph_path"`
	SourceLanguage    string        `json:"source_language"`
	TargetLanguage    string        `json:"target_language"`
	Mappings          []MappingSpec `json:"mappings"`
	UseSandbox        bool          `json:"use_sandbox"`
}

// LoadMappingFile reads and parses path into a MappingFile. Per the exit
// code contract (spec §6), callers translate a non-nil error here into
// exit code 2 ("mapping file not found or malformed").
func LoadMappingFile(path string) (MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MappingFile{}, fmt.Errorf("reading mapping file %s: %w", path, err)
	}

	var mf MappingFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return MappingFile{}, fmt.Errorf("parsing mapping file %s: %w", path, err)
	}
	if mf.RepoDir == "" || mf.RefactoredRepoDir == "" {
		return MappingFile{}, fmt.Errorf("mapping file %s: repo_dir and refactored_repo_dir are required", path)
	}
	return mf, nil
}

// LoadDependencyGraph reads the JSON dependency graph referenced by
// DepGraphPath: `{nodes:[{path,lang,ext}], edges:[{src,dst,kind}]}`.
func LoadDependencyGraph(path string) (model.DependencyGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DependencyGraph{}, fmt.Errorf("reading dependency graph %s: %w", path, err)
	}
	var graph model.DependencyGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return model.DependencyGraph{}, fmt.Errorf("parsing dependency graph %s: %w", path, err)
	}
	return graph, nil
}

// ToModuleMappings converts the mapping file's raw specs to the
// read-only ModuleMapping values the Orchestrator consumes.
func (mf MappingFile) ToModuleMappings() []model.ModuleMapping {
	out := make([]model.ModuleMapping, 0, len(mf.Mappings))
	for _, m := range mf.Mappings {
		out = append(out, model.ModuleMapping{BeforeFiles: m.Before, AfterFiles: m.After})
	}
	return out
}

// ResolveModuleMappings returns the mapping file's explicit mappings, or
// falls back to DiscoverMappings(mf.RepoDir, mf.RefactoredRepoDir) when
// none were supplied — the mapping file describes *which* repos to pair,
// not necessarily every file within them.
func (mf MappingFile) ResolveModuleMappings() ([]model.ModuleMapping, error) {
	if len(mf.Mappings) > 0 {
		return mf.ToModuleMappings(), nil
	}
	return DiscoverMappings(mf.RepoDir, mf.RefactoredRepoDir)
}

// DiscoverMappings walks repoDir for non-hidden, non-git, git-unignored
// files and pairs each with the refactored tree's file at the identical
// relative path, skipping any legacy file with no counterpart. This is
// the no-mapping-file-entry default: a 1:1 directory mirror is the
// common case for a refactor that preserves module boundaries.
func DiscoverMappings(repoDir, refactoredRepoDir string) ([]model.ModuleMapping, error) {
	opts := fileutil.FilteringOptions{IgnoreHidden: true, IgnoreGitFiles: true}
	isRepo := fileutil.CheckGitRepoCached(repoDir)

	var mappings []model.ModuleMapping
	walkErr := fileutil.WalkDirectory(repoDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(repoDir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if !fileutil.ShouldProcessFile(rel, opts).ShouldProcess {
			return nil
		}
		if isRepo {
			ignored, ignErr := fileutil.CheckGitIgnoreCached(repoDir, rel)
			if ignErr == nil && ignored {
				return nil
			}
		}
		counterpart := filepath.Join(refactoredRepoDir, filepath.FromSlash(rel))
		if _, statErr := os.Stat(counterpart); statErr != nil {
			return nil
		}
		mappings = append(mappings, model.ModuleMapping{
			BeforeFiles: []string{rel},
			AfterFiles:  []string{rel},
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("discovering mappings under %s: %w", repoDir, walkErr)
	}
	return mappings, nil
}

// CredentialsFilePath resolves the path to the LLM credentials file from
// CredentialsEnvVar. Returns an error if the variable is unset: the
// generator cannot proceed without it, but never attempts to create one
// itself.
func CredentialsFilePath() (string, error) {
	path := os.Getenv(CredentialsEnvVar)
	if path == "" {
		return "", fmt.Errorf("%s is not set", CredentialsEnvVar)
	}
	return path, nil
}

// ToolResult is the tool-style entry point's response shape (spec §6):
// `{ok, test_result_dir, summary_path, test_records_path, review_path}`
// on success, `{ok:false, error}` on failure.
type ToolResult struct {
	OK              bool   `json:"ok"`
	TestResultDir   string `json:"test_result_dir,omitempty"`
	SummaryPath     string `json:"summary_path,omitempty"`
	TestRecordsPath string `json:"test_records_path,omitempty"`
	ReviewPath      string `json:"review_path,omitempty"`
	Error           string `json:"error,omitempty"`
}
