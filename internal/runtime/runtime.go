// Package runtime holds the embedded island runtime: the small client-side
// snippets a section ships only when it explicitly opts into interactivity.
// Nothing in this package reaches the output bundle unless a section asks.
package runtime

import (
	"bytes"
	"embed"
	"fmt"
	"sort"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
)

//go:embed islands/*.js
var islandsFS embed.FS

// Marker opens the island loader. The elision check scans emitted bytes for
// it as defense in depth, so it must appear in every shipped bundle and
// nowhere else.
const Marker = "/*! slp-island-runtime */"

// IslandMarker tags one island's snippet inside the bundle.
func IslandMarker(kind core.SectionKind) string {
	return fmt.Sprintf("/* island:%s */", kind)
}

// Loader returns the shared island bootstrap.
func Loader() ([]byte, error) {
	return islandsFS.ReadFile("islands/loader.js")
}

// Island returns the runtime snippet for one section kind.
func Island(kind core.SectionKind) ([]byte, error) {
	if !kind.SupportsIsland() {
		return nil, &core.BuildError{
			Op:      "runtime.island",
			Kind:    core.ErrUnsupportedKind,
			Section: kind.String(),
			Err:     fmt.Errorf("kind has no island runtime"),
		}
	}
	return islandsFS.ReadFile(fmt.Sprintf("islands/%s.js", kind))
}

// Bundle concatenates the loader with the islands of the opted-in kinds, in
// kind-name order so the bundle bytes never depend on declaration order.
// Returns nil when no kind opted in: no section, no script artifact.
func Bundle(kinds []core.SectionKind) ([]byte, error) {
	if len(kinds) == 0 {
		return nil, nil
	}

	unique := make(map[core.SectionKind]bool, len(kinds))
	for _, k := range kinds {
		unique[k] = true
	}
	ordered := make([]core.SectionKind, 0, len(unique))
	for k := range unique {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].String() < ordered[j].String() })

	loader, err := Loader()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(Marker)
	buf.WriteByte('\n')
	buf.Write(loader)

	for _, kind := range ordered {
		snippet, err := Island(kind)
		if err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		buf.WriteString(IslandMarker(kind))
		buf.WriteByte('\n')
		buf.Write(snippet)
	}

	return buf.Bytes(), nil
}
