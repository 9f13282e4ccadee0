package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
)

// hashedRefPattern matches hashed bundle references inside the entry
// document: assets/<stem>.<hash12>.<ext> in src/href/srcset positions.
var hashedRefPattern = regexp.MustCompile(`/(assets/[A-Za-z0-9_/.-]+\.[a-f0-9]{12}\.[a-z0-9]+)`)

// CheckIntegrity verifies that every hashed reference inside the entry
// document corresponds to a staged artifact. Dangling references fail the
// build.
func CheckIntegrity(entry core.OutputArtifact, staging *Staging) error {
	matches := hashedRefPattern.FindAllStringSubmatch(string(entry.Bytes), -1)
	for _, m := range matches {
		ref := m[1]
		if !staging.Has(ref) {
			return &core.BuildError{
				Op:   "emit.integrity",
				Kind: core.ErrUnresolvedReference,
				Path: ref,
				Err:  fmt.Errorf("entry document references missing artifact"),
			}
		}
	}
	return nil
}

// Fingerprint reduces an artifact set to a single digest over
// (logicalPath, contentHash) pairs in path order. Two builds on identical
// input must produce equal fingerprints.
func Fingerprint(artifacts []core.OutputArtifact) string {
	sorted := make([]core.OutputArtifact, len(artifacts))
	copy(sorted, artifacts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LogicalPath < sorted[j].LogicalPath })

	var b strings.Builder
	for _, a := range sorted {
		b.WriteString(a.LogicalPath)
		b.WriteByte('\n')
		b.WriteString(a.ContentHash)
		b.WriteByte('\n')
	}
	return core.HashContent([]byte(b.String()))
}

// Publish writes the artifact set to outDir atomically: everything is staged
// into a sibling directory first, then swapped into place with renames. On
// any failure the previously published bundle is left untouched.
func Publish(outDir string, artifacts []core.OutputArtifact) error {
	parent := filepath.Dir(outDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("prepare output parent: %w", err)
	}

	stagingDir, err := os.MkdirTemp(parent, filepath.Base(outDir)+".staging-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(stagingDir) }()

	for _, artifact := range artifacts {
		dst := filepath.Join(stagingDir, filepath.FromSlash(artifact.LogicalPath))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("stage %s: %w", artifact.LogicalPath, err)
		}
		if err := os.WriteFile(dst, artifact.Bytes, 0o644); err != nil {
			return fmt.Errorf("stage %s: %w", artifact.LogicalPath, err)
		}
	}

	previous := outDir + ".previous"
	_ = os.RemoveAll(previous)

	if _, err := os.Stat(outDir); err == nil {
		if err := os.Rename(outDir, previous); err != nil {
			return fmt.Errorf("retire previous bundle: %w", err)
		}
	}

	if err := os.Rename(stagingDir, outDir); err != nil {
		// Best effort: put the previous bundle back.
		_ = os.Rename(previous, outDir)
		return fmt.Errorf("publish bundle: %w", err)
	}

	_ = os.RemoveAll(previous)
	return nil
}
