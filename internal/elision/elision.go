// Package elision is the regression guard for the "no JavaScript unless
// explicitly opted in" contract. It reasons structurally over the section
// declarations first, then scans emitted bytes as defense in depth.
package elision

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/runtime"
)

// Check verifies the emitted bundle against the declared interactivity
// opt-ins. With every section's flag off, zero interactive-runtime bytes may
// ship; with opt-ins, only the opted-in islands may appear.
func Check(artifacts []core.OutputArtifact, sections []core.SectionNode) error {
	expected := make(map[core.SectionKind]bool)
	for _, s := range sections {
		if s.Enabled && s.Interactive {
			expected[s.Kind] = true
		}
	}

	for _, artifact := range artifacts {
		isScript := strings.HasSuffix(artifact.LogicalPath, ".js")

		if !isScript {
			if bytes.Contains(artifact.Bytes, []byte(runtime.Marker)) {
				return violation(artifact.LogicalPath, "runtime marker outside a script bundle")
			}
			continue
		}

		if len(expected) == 0 {
			return violation(artifact.LogicalPath, "script bundle shipped with no section opted into interactivity")
		}

		if !bytes.Contains(artifact.Bytes, []byte(runtime.Marker)) {
			return violation(artifact.LogicalPath, "script bundle missing the runtime marker")
		}

		for k := core.KindHeader; k <= core.KindFooter; k++ {
			if !k.SupportsIsland() {
				continue
			}
			present := bytes.Contains(artifact.Bytes, []byte(runtime.IslandMarker(k)))
			if present && !expected[k] {
				return violation(artifact.LogicalPath, fmt.Sprintf("island %s shipped without opt-in", k))
			}
			if !present && expected[k] {
				return violation(artifact.LogicalPath, fmt.Sprintf("island %s opted in but absent from bundle", k))
			}
		}
	}

	return nil
}

func violation(path, detail string) error {
	return &core.BuildError{
		Op:   "elision.check",
		Kind: core.ErrUnexpectedRuntime,
		Path: path,
		Err:  fmt.Errorf("%s", detail),
	}
}
