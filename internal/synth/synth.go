// Package synth writes registered workflows to disk and reports drift
// between the registry and the files already committed.
package synth

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/savaki/cicd-helper/internal/errors"
	"github.com/savaki/cicd-helper/internal/workflow"
	"github.com/segmentio/ksuid"
)

// Status describes how a file on disk differs from the registry
type Status string

const (
	StatusMissing Status = "missing"
	StatusChanged Status = "changed"
	StatusStale   Status = "stale"
)

// Result summarizes a Synth run. Each slice holds file names.
type Result struct {
	Written   []string
	Unchanged []string
	Removed   []string
}

// FileDiff is a single out of date file
type FileDiff struct {
	Name   string
	Status Status
	Diff   string
}

// Report is the outcome of Check
type Report struct {
	Diffs []FileDiff
}

func (r *Report) UpToDate() bool {
	return len(r.Diffs) == 0
}

// Synthesizer emits workflows into dir. Relative dirs resolve against root,
// which is also where .gitignore is read from.
type Synthesizer struct {
	root string
	dir  string
}

func New(root, dir string) *Synthesizer {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return &Synthesizer{
		root: root,
		dir:  dir,
	}
}

// Dir returns the output directory
func (s *Synthesizer) Dir() string {
	return s.dir
}

// Synth writes every registered workflow, skipping files whose content is
// unchanged, and removes previously generated files that are no longer
// registered. Hand-written workflows in the same directory are left alone.
func (s *Synthesizer) Synth(ctx context.Context, reg *workflow.Registry) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if s.Ignored() {
		logger.Warn().
			Str("dir", s.dir).
			Msg("Workflow directory is matched by .gitignore; generated files will not be committed")
	}

	rendered, err := render(reg)
	if err != nil {
		return nil, err
	}

	existing, err := s.existing()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workflow directory %s: %w", s.dir, err)
	}

	result := &Result{}
	for _, name := range sortedKeys(rendered) {
		content := rendered[name]
		if current, ok := existing[name]; ok && bytes.Equal(current, content) {
			logger.Debug().Str("file", name).Msg("Workflow unchanged")
			result.Unchanged = append(result.Unchanged, name)
			continue
		}

		if err := s.write(name, content); err != nil {
			return nil, err
		}
		logger.Info().Str("file", name).Msg("Wrote workflow")
		result.Written = append(result.Written, name)
	}

	for _, name := range sortedKeys(existing) {
		if _, ok := rendered[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return nil, fmt.Errorf("failed to remove stale workflow %s: %w", name, err)
		}
		logger.Info().Str("file", name).Msg("Removed stale workflow")
		result.Removed = append(result.Removed, name)
	}

	return result, nil
}

// Check compares the registry against the files on disk without writing
func (s *Synthesizer) Check(reg *workflow.Registry) (*Report, error) {
	rendered, err := render(reg)
	if err != nil {
		return nil, err
	}

	existing, err := s.existing()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, name := range sortedKeys(rendered) {
		want := rendered[name]
		got, ok := existing[name]
		switch {
		case !ok:
			diff, err := unifiedDiff(name, nil, want)
			if err != nil {
				return nil, err
			}
			report.Diffs = append(report.Diffs, FileDiff{Name: name, Status: StatusMissing, Diff: diff})
		case !bytes.Equal(got, want):
			diff, err := unifiedDiff(name, got, want)
			if err != nil {
				return nil, err
			}
			report.Diffs = append(report.Diffs, FileDiff{Name: name, Status: StatusChanged, Diff: diff})
		}
	}

	for _, name := range sortedKeys(existing) {
		if _, ok := rendered[name]; ok {
			continue
		}
		diff, err := unifiedDiff(name, existing[name], nil)
		if err != nil {
			return nil, err
		}
		report.Diffs = append(report.Diffs, FileDiff{Name: name, Status: StatusStale, Diff: diff})
	}

	return report, nil
}

// Err returns ErrOutOfDate when the report contains differences
func (r *Report) Err() error {
	if r.UpToDate() {
		return nil
	}

	names := make([]string, 0, len(r.Diffs))
	for _, d := range r.Diffs {
		names = append(names, fmt.Sprintf("%s (%s)", d.Name, d.Status))
	}
	return fmt.Errorf("%w: %s", errors.ErrOutOfDate, strings.Join(names, ", "))
}

// Ignored reports whether the output directory is matched by the
// repository's .gitignore
func (s *Synthesizer) Ignored() bool {
	gitignore := filepath.Join(s.root, ".gitignore")
	if _, err := os.Stat(gitignore); err != nil {
		return false
	}

	matcher, err := ignore.CompileIgnoreFile(gitignore)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(s.root, s.dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	return matcher.MatchesPath(rel) || matcher.MatchesPath(rel+"/"+workflow.FileName("cdk-deploy"))
}

// existing returns the generated workflow files currently in dir, keyed by
// file name
func (s *Synthesizer) existing() (map[string][]byte, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow directory %s: %w", s.dir, err)
	}

	files := map[string][]byte{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
			continue
		}

		content, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow %s: %w", name, err)
		}
		if workflow.IsGenerated(content) {
			files[name] = content
		}
	}

	return files, nil
}

// write replaces name atomically via a temp file in the same directory
func (s *Synthesizer) write(name string, content []byte) error {
	tmp := filepath.Join(s.dir, fmt.Sprintf(".%s.%s.tmp", name, ksuid.New().String()))
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace workflow %s: %w", name, err)
	}
	return nil
}

func render(reg *workflow.Registry) (map[string][]byte, error) {
	rendered := map[string][]byte{}
	for _, w := range reg.Workflows() {
		content, err := workflow.Render(w)
		if err != nil {
			return nil, err
		}
		rendered[w.FileName()] = content
	}
	return rendered, nil
}

func unifiedDiff(name string, from, to []byte) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(from)),
		B:        difflib.SplitLines(string(to)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to diff workflow %s: %w", name, err)
	}
	return text, nil
}

func sortedKeys(m map[string][]byte) []string {
	return slices.Sorted(maps.Keys(m))
}
