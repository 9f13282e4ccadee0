// Package typeface subsets and self-hosts the site's variable fonts. Each
// family binds to a named token consumed by the stylesheet layer, so token
// consumers never know about the loading mechanism.
package typeface

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/emit"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/registry"
)

// SourceDecl is one variable-font source file of a family.
type SourceDecl struct {
	File    string
	Weights core.WeightRange
	Style   core.FontStyle
}

// FamilyDecl declares a family, its token binding, and the weights the page
// actually uses.
type FamilyDecl struct {
	Family      string
	Token       string
	Fallback    string // generic CSS fallback, e.g. "serif"
	Sources     []SourceDecl
	UsedWeights []int
}

// Packaged is the packager output: face declarations plus the generated CSS
// appended to the stylesheet bundle.
type Packaged struct {
	Faces []core.FontFace
	CSS   []byte
}

var fontMagics = map[string]string{
	"\x00\x01\x00\x00": "truetype",
	"true":             "truetype",
	"OTTO":             "opentype",
	"wOFF":             "woff",
	"wOF2":             "woff2",
}

func sniffFormat(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	format, ok := fontMagics[string(data[:4])]
	return format, ok
}

// Pack validates, hashes, and stages every declared source, emitting one
// distinct face per source. A weight-axis source and an italic source of the
// same family are never merged.
func Pack(reg *registry.Registry, families []FamilyDecl, staging *emit.Staging) (*Packaged, error) {
	var out Packaged
	var css bytes.Buffer

	for _, family := range families {
		if err := checkAxes(family); err != nil {
			return nil, err
		}

		var faces []core.FontFace
		for _, src := range family.Sources {
			rec, err := reg.Register(src.File, "font:"+family.Family)
			if err != nil {
				return nil, err
			}
			if rec.Kind != core.AssetFont {
				return nil, &core.BuildError{
					Op:   "typeface.pack",
					Kind: core.ErrUnsupportedKind,
					Path: src.File,
				}
			}

			data, _ := reg.Content(rec.ContentHash)
			format, ok := sniffFormat(data)
			if !ok {
				return nil, &core.BuildError{
					Op:   "typeface.pack",
					Kind: core.ErrUnsupportedKind,
					Path: src.File,
					Err:  fmt.Errorf("unrecognized font container"),
				}
			}

			face := core.FontFace{
				Family:         family.Family,
				Token:          family.Token,
				Weights:        src.Weights,
				Style:          src.Style,
				SourceFileHash: rec.ContentHash,
				OutputPath:     core.FontAssetPath(family.Family, src.Style, rec.ContentHash, strings.ToLower(filepath.Ext(src.File))),
			}

			err = staging.Put(face.OutputPath, core.OutputArtifact{
				LogicalPath: face.OutputPath,
				ContentHash: rec.ContentHash,
				Bytes:       data,
			})
			if err != nil {
				return nil, err
			}

			writeFace(&css, face, format)
			faces = append(faces, face)
		}

		out.Faces = append(out.Faces, faces...)
	}

	css.WriteString(":root {\n")
	for _, family := range families {
		fallback := family.Fallback
		if fallback == "" {
			fallback = "sans-serif"
		}
		fmt.Fprintf(&css, "  --font-%s: %q, %s;\n", family.Token, family.Family, fallback)
	}
	css.WriteString("}\n")

	out.CSS = css.Bytes()
	return &out, nil
}

func writeFace(css *bytes.Buffer, face core.FontFace, format string) {
	css.WriteString("@font-face {\n")
	fmt.Fprintf(css, "  font-family: %q;\n", face.Family)
	fmt.Fprintf(css, "  font-style: %s;\n", face.Style)
	fmt.Fprintf(css, "  font-weight: %s;\n", face.Weights)
	css.WriteString("  font-display: swap;\n")
	fmt.Fprintf(css, "  src: url(%q) format(%q);\n", "/"+face.OutputPath, format)
	css.WriteString("}\n")
}

// checkAxes fails with MissingAxis when a used weight falls outside every
// declared source's axis range. The build aborts rather than silently
// substituting a system font.
func checkAxes(family FamilyDecl) error {
	for _, weight := range family.UsedWeights {
		covered := false
		for _, src := range family.Sources {
			if src.Weights.Contains(weight) {
				covered = true
				break
			}
		}
		if !covered {
			return &core.BuildError{
				Op:   "typeface.pack",
				Kind: core.ErrMissingAxis,
				Path: family.Family,
				Err:  fmt.Errorf("weight %d outside every declared axis range", weight),
			}
		}
	}
	return nil
}

var tokenUsePattern = regexp.MustCompile(`var\(--font-([a-z0-9-]+)`)

// ValidateTokens checks that every font-family alias referenced by the
// design-token stylesheet resolves to an emitted face token. The stylesheet
// is otherwise consumed opaquely.
func ValidateTokens(tokensCSS []byte, families []FamilyDecl) error {
	declared := make(map[string]bool, len(families))
	for _, f := range families {
		declared[f.Token] = true
	}

	for _, m := range tokenUsePattern.FindAllSubmatch(tokensCSS, -1) {
		token := string(m[1])
		if !declared[token] {
			return &core.BuildError{
				Op:   "typeface.tokens",
				Kind: core.ErrUnresolvedReference,
				Path: "--font-" + token,
				Err:  fmt.Errorf("stylesheet alias has no emitted face"),
			}
		}
	}
	return nil
}
