// Package registry catalogs source media and assigns canonical
// content-addressed identity. The registry is an explicit value threaded
// through the pipeline; registration order never affects identity.
package registry

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
)

var assetKinds = map[string]core.AssetKind{
	".png":   core.AssetImage,
	".jpg":   core.AssetImage,
	".jpeg":  core.AssetImage,
	".gif":   core.AssetImage,
	".webp":  core.AssetImage,
	".ttf":   core.AssetFont,
	".otf":   core.AssetFont,
	".woff":  core.AssetFont,
	".woff2": core.AssetFont,
}

// KindForPath classifies a source path by extension.
func KindForPath(path string) (core.AssetKind, bool) {
	kind, ok := assetKinds[strings.ToLower(filepath.Ext(path))]
	return kind, ok
}

// Registry is the append-only catalog of source assets, keyed by content
// hash. Byte-identical files collapse to a single record regardless of how
// many paths they were registered under.
type Registry struct {
	root    string
	byHash  map[string]*core.AssetRecord
	byPath  map[string]string // registered path -> content hash
	content map[string][]byte
}

// New returns a registry rooted at the asset source directory. Paths passed
// to Register are resolved relative to root.
func New(root string) *Registry {
	return &Registry{
		root:    root,
		byHash:  make(map[string]*core.AssetRecord),
		byPath:  make(map[string]string),
		content: make(map[string][]byte),
	}
}

// Register catalogs one source file and returns its record. Registration is
// idempotent and side-effect-free beyond appending to the registry table;
// re-registering a path records the additional usage on the same record.
func (r *Registry) Register(path string, usage string) (*core.AssetRecord, error) {
	kind, ok := KindForPath(path)
	if !ok {
		return nil, &core.BuildError{
			Op:   "registry.register",
			Kind: core.ErrUnsupportedKind,
			Path: path,
		}
	}

	if hash, seen := r.byPath[path]; seen {
		rec := r.byHash[hash]
		rec.DeclaredUsages = appendUsage(rec.DeclaredUsages, usage)
		return rec, nil
	}

	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, &core.BuildError{
			Op:   "registry.register",
			Kind: core.ErrNotFound,
			Path: path,
			Err:  err,
		}
	}

	hash := core.HashContent(data)
	r.byPath[path] = hash

	if rec, seen := r.byHash[hash]; seen {
		rec.DeclaredUsages = appendUsage(rec.DeclaredUsages, usage)
		return rec, nil
	}

	rec := &core.AssetRecord{
		SourcePath:  path,
		Kind:        kind,
		ContentHash: hash,
	}
	rec.DeclaredUsages = appendUsage(nil, usage)
	r.byHash[hash] = rec
	r.content[hash] = data
	return rec, nil
}

// Lookup returns the record a registered path resolved to.
func (r *Registry) Lookup(path string) (*core.AssetRecord, bool) {
	hash, ok := r.byPath[path]
	if !ok {
		return nil, false
	}
	return r.byHash[hash], true
}

// Content returns the source bytes of a registered asset by content hash.
func (r *Registry) Content(hash string) ([]byte, bool) {
	data, ok := r.content[hash]
	return data, ok
}

// Records returns every record ordered by content hash, for deterministic
// iteration.
func (r *Registry) Records() []*core.AssetRecord {
	hashes := make([]string, 0, len(r.byHash))
	for h := range r.byHash {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	records := make([]*core.AssetRecord, 0, len(hashes))
	for _, h := range hashes {
		records = append(records, r.byHash[h])
	}
	return records
}

func appendUsage(usages []string, usage string) []string {
	if usage == "" {
		return usages
	}
	for _, u := range usages {
		if u == usage {
			return usages
		}
	}
	return append(usages, usage)
}
