// Package compose resolves the ordered section sequence into one document
// tree. Every section walks the Unresolved → Resolving → Resolved → Composed
// lifecycle; composition concatenates resolved fragments under the shared
// shell strictly in declared order.
package compose

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/registry"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/transcode"
)

// Section carries one declared section through the composition lifecycle.
type Section struct {
	Node  core.SectionNode
	State core.SectionState

	id     string
	prose  template.HTML
	images []imageView
}

// NewSections wraps declared nodes in lifecycle order, assigning stable
// element ids (kind name, suffixed on repeats).
func NewSections(nodes []core.SectionNode) []*Section {
	counts := make(map[core.SectionKind]int)
	sections := make([]*Section, 0, len(nodes))
	for _, node := range nodes {
		counts[node.Kind]++
		id := node.Kind.String()
		if counts[node.Kind] > 1 {
			id = fmt.Sprintf("%s-%d", id, counts[node.Kind])
		}
		sections = append(sections, &Section{Node: node, State: core.StateUnresolved, id: id})
	}
	return sections
}

// SetProse attaches pre-rendered prose HTML (markdown content resolved by
// the site definition loader).
func (s *Section) SetProse(html template.HTML) {
	s.prose = html
}

// Composer turns resolved sections into the entry document.
type Composer struct {
	registry *registry.Registry
	images   *transcode.Set
}

func New(reg *registry.Registry, images *transcode.Set) *Composer {
	return &Composer{registry: reg, images: images}
}

// Resolve looks up every asset a section references. The section cannot
// reach Resolved until each reference has a corresponding variant.
func (c *Composer) Resolve(section *Section) error {
	if !section.Node.Enabled {
		return nil
	}

	section.State = core.StateResolving

	for _, usage := range section.Node.Images {
		record, ok := c.registry.Lookup(usage.Source)
		if !ok {
			return c.unresolved(section, usage.Source, "asset was never registered")
		}

		widths := append([]int(nil), usage.Widths...)
		sort.Ints(widths)

		var webpSet, fallbackSet []string
		var largest core.ImageVariant
		var fallbackSrc string
		var mime string
		seen := make(map[int]bool)

		for _, w := range widths {
			resolved, ok := c.images.Resolve(record.ContentHash, w)
			if !ok {
				return c.unresolved(section, usage.Source, fmt.Sprintf("no variant for width %d", w))
			}
			if seen[resolved.WebP.Width] {
				continue
			}
			seen[resolved.WebP.Width] = true

			webpSet = append(webpSet, fmt.Sprintf("/%s %dw", resolved.WebP.OutputPath, resolved.WebP.Width))
			fallbackSet = append(fallbackSet, fmt.Sprintf("/%s %dw", resolved.Fallback.OutputPath, resolved.Fallback.Width))
			largest = resolved.Fallback
			fallbackSrc = "/" + resolved.Fallback.OutputPath
			mime = resolved.Fallback.Format.MIME()
		}

		if len(webpSet) == 0 {
			return c.unresolved(section, usage.Source, "usage declares no widths")
		}

		section.images = append(section.images, imageView{
			Alt:            usage.Alt,
			Sizes:          usage.Sizes,
			Width:          largest.Width,
			Height:         largest.Height,
			Srcset:         strings.Join(webpSet, ", "),
			FallbackSrcset: strings.Join(fallbackSet, ", "),
			FallbackSrc:    fallbackSrc,
			FallbackMIME:   mime,
		})
	}

	section.State = core.StateResolved
	return nil
}

func (c *Composer) unresolved(section *Section, path, detail string) error {
	section.State = core.StateUnresolved
	section.images = nil
	return &core.BuildError{
		Op:      "compose.resolve",
		Kind:    core.ErrUnresolvedReference,
		Path:    path,
		Section: section.Node.Kind.String(),
		Err:     fmt.Errorf("%s", detail),
	}
}

// Compose renders every enabled section in declared order under the shell.
// A section is omitted only via its explicit enabled flag; order never
// changes.
func (c *Composer) Compose(meta core.PageMeta, sections []*Section, stylesheetHref, scriptHref string) ([]byte, error) {
	var body bytes.Buffer
	skipTarget := ""

	for _, section := range sections {
		if !section.Node.Enabled {
			continue
		}
		if section.State != core.StateResolved {
			return nil, &core.BuildError{
				Op:      "compose.compose",
				Kind:    core.ErrInternal,
				Section: section.Node.Kind.String(),
				Err:     fmt.Errorf("section is %s, want resolved", section.State),
			}
		}

		if skipTarget == "" && section.Node.Kind.Landmark() {
			skipTarget = section.id
		}

		view := sectionView{
			ID:          section.id,
			Kind:        section.Node.Kind.String(),
			Landmark:    section.Node.Kind.Landmark(),
			Interactive: section.Node.Interactive,
			Title:       titleFor(section.Node),
			Props:       section.Node.Props,
			Prose:       section.prose,
			Images:      section.images,
		}

		fragment, err := renderSection(view, section.Node.Kind)
		if err != nil {
			return nil, &core.BuildError{
				Op:      "compose.compose",
				Kind:    core.ErrInternal,
				Section: section.Node.Kind.String(),
				Err:     err,
			}
		}

		body.WriteString(string(fragment))
		body.WriteByte('\n')
		section.State = core.StateComposed
	}

	if skipTarget == "" {
		skipTarget = "page"
	}

	lang := meta.Lang
	if lang == "" {
		lang = "en"
	}

	var doc bytes.Buffer
	err := shellTemplate.Execute(&doc, shellData{
		Lang:           lang,
		Title:          meta.Title,
		Description:    meta.Description,
		StylesheetHref: stylesheetHref,
		ScriptSrc:      scriptHref,
		SkipTarget:     skipTarget,
		Body:           template.HTML(body.String()),
	})
	if err != nil {
		return nil, &core.BuildError{Op: "compose.shell", Kind: core.ErrInternal, Err: err}
	}

	return doc.Bytes(), nil
}

func titleFor(node core.SectionNode) string {
	if t, ok := node.Props["title"].(string); ok && t != "" {
		return t
	}
	return defaultTitle(node.Kind)
}
