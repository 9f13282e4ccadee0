// Package emit serializes the composed page and its assets into a hashed
// output bundle. Artifacts accumulate in an append-only, content-hash-keyed
// staging area and are published with an atomic directory swap.
package emit

import (
	"sort"
	"sync"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
)

// Staging is the write-once artifact staging area shared by the transcoding
// workers and the emission step. Concurrent writers computing the same key
// must be idempotent: a second write with identical bytes is a no-op, a
// second write with differing bytes is a fatal internal invariant violation.
type Staging struct {
	mu        sync.Mutex
	byKey     map[string]string // staging key -> logical path
	artifacts map[string]core.OutputArtifact
}

func NewStaging() *Staging {
	return &Staging{
		byKey:     make(map[string]string),
		artifacts: make(map[string]core.OutputArtifact),
	}
}

// Put stages one artifact under a deduplication key. The key may differ from
// the logical path (image variants key on parentHash:width:format).
func (s *Staging) Put(key string, artifact core.OutputArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingPath, ok := s.byKey[key]; ok {
		existing := s.artifacts[existingPath]
		if existing.ContentHash != artifact.ContentHash {
			return &core.BuildError{
				Op:   "emit.stage",
				Kind: core.ErrNonDeterministicOutput,
				Path: artifact.LogicalPath,
			}
		}
		return nil
	}

	if existing, ok := s.artifacts[artifact.LogicalPath]; ok && existing.ContentHash != artifact.ContentHash {
		return &core.BuildError{
			Op:   "emit.stage",
			Kind: core.ErrNonDeterministicOutput,
			Path: artifact.LogicalPath,
		}
	}

	s.byKey[key] = artifact.LogicalPath
	s.artifacts[artifact.LogicalPath] = artifact
	return nil
}

// Lookup returns the staged artifact for a deduplication key.
func (s *Staging) Lookup(key string) (core.OutputArtifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.byKey[key]
	if !ok {
		return core.OutputArtifact{}, false
	}
	return s.artifacts[path], true
}

// Has reports whether a logical path was staged.
func (s *Staging) Has(logicalPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.artifacts[logicalPath]
	return ok
}

// Artifacts returns the staged set ordered by logical path. Output never
// depends on worker completion order.
func (s *Staging) Artifacts() []core.OutputArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.artifacts))
	for p := range s.artifacts {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]core.OutputArtifact, 0, len(paths))
	for _, p := range paths {
		out = append(out, s.artifacts[p])
	}
	return out
}
