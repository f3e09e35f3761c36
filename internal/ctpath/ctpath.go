// Package ctpath supplies constructor functions for every on-disk path the
// pipeline writes, so no component concatenates strings ad hoc (design note
// in spec §9, and the artifact-locality property P3). Every path returned is
// a descendant of the run directory <artifacts_root>/<run_id>/.
package ctpath

import "path/filepath"

// RunDirs holds the three run-scoped subdirectories the Orchestrator owns.
type RunDirs struct {
	Root    string // <artifacts_root>/<run_id>
	Golden  string // .../golden
	Tests   string // .../tests
	Logs    string // .../logs
}

// NewRunDirs computes the run directory layout for a run without creating
// anything on disk; callers MkdirAll each field as needed.
func NewRunDirs(artifactsRoot, runID string) RunDirs {
	root := filepath.Join(artifactsRoot, runID)
	return RunDirs{
		Root:   root,
		Golden: filepath.Join(root, "golden"),
		Tests:  filepath.Join(root, "tests"),
		Logs:   filepath.Join(root, "logs"),
	}
}

// GoldenScriptPath is where a driver script for sourceFile is written.
// filename is the plugin-chosen name from EmitScriptFilename.
func GoldenScriptPath(dirs RunDirs, filename string) string {
	return filepath.Join(dirs.Golden, filename)
}

// GoldenLogPath is the combined stdout+stderr log sibling of a driver
// script written at scriptPath.
func GoldenLogPath(dirs RunDirs, scriptPath string) string {
	base := filepath.Base(scriptPath)
	return filepath.Join(dirs.Golden, base+".log")
}

// GoldenCoveragePath is the coverage-data sibling of a driver script.
func GoldenCoveragePath(dirs RunDirs, scriptPath string) string {
	base := filepath.Base(scriptPath)
	return filepath.Join(dirs.Golden, base+".coverage")
}

// EmittedTestPath is where an emitted test file for filename is written
// under the refactored repo root (per §6, tests/<emitted> actually lives
// under the refactored repo's own tree, not the run directory; this
// constructor is for the run-scoped *copy* kept for report linkage).
func EmittedTestPath(dirs RunDirs, filename string) string {
	return filepath.Join(dirs.Tests, filename)
}

// TestLogPath is the combined stdout+stderr log sibling of an emitted
// test file.
func TestLogPath(dirs RunDirs, testPath string) string {
	base := filepath.Base(testPath)
	return filepath.Join(dirs.Tests, base+".log")
}

// SummaryPath is the machine-readable gate file for a run.
func SummaryPath(dirs RunDirs) string {
	return filepath.Join(dirs.Root, "summary.json")
}

// TestRecordsPath is the evidence file for a run.
func TestRecordsPath(dirs RunDirs) string {
	return filepath.Join(dirs.Root, "test_records.json")
}

// ReviewPath is the human-aimed analysis file for a run.
func ReviewPath(dirs RunDirs) string {
	return filepath.Join(dirs.Root, "review.json")
}

// RefactoredTestPath joins a refactored repo root with a plugin-emitted
// relative test filename, guarding against path traversal so an emitted
// test can never escape the refactored repo (P3: nothing is written
// under the legacy repo, and nothing should escape the refactored repo
// either).
func RefactoredTestPath(refactoredRepoRoot, filename string) (string, error) {
	return safeJoin(refactoredRepoRoot, filename)
}

// GoldenDriverPath joins the refactored repo's working copy with a
// plugin-emitted driver script filename. Per §4.5 step 2, driver scripts
// are written "beside the legacy repo's working copy" but never mutate
// the legacy repo itself; callers pass a dedicated scratch directory
// here, not the legacy repo root.
func GoldenDriverPath(scratchDir, filename string) (string, error) {
	return safeJoin(scratchDir, filename)
}

func safeJoin(root, name string) (string, error) {
	joined := filepath.Join(root, name)
	rel, err := filepath.Rel(root, joined)
	if err != nil {
		return "", err
	}
	if rel == ".." || len(rel) >= 2 && rel[:2] == ".." {
		return "", &PathEscapeError{Root: root, Name: name}
	}
	return joined, nil
}

// PathEscapeError is returned when a plugin-emitted filename would resolve
// outside the directory it is supposed to live under.
type PathEscapeError struct {
	Root string
	Name string
}

func (e *PathEscapeError) Error() string {
	return "path " + e.Name + " escapes directory " + e.Root
}
