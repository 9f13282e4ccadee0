package core

import "fmt"

// SectionKind is the closed set of page sections. The page is a fixed
// ordered sequence of these; rendering dispatches with an exhaustive switch,
// so adding a kind is a compile-checked extension point.
type SectionKind int

const (
	KindHeader SectionKind = iota
	KindHero
	KindAbout
	KindServices
	KindTestimonials
	KindFAQ
	KindContact
	KindFooter
)

var sectionKindNames = [...]string{
	KindHeader:       "header",
	KindHero:         "hero",
	KindAbout:        "about",
	KindServices:     "services",
	KindTestimonials: "testimonials",
	KindFAQ:          "faq",
	KindContact:      "contact",
	KindFooter:       "footer",
}

func (k SectionKind) String() string {
	if k < 0 || int(k) >= len(sectionKindNames) {
		return fmt.Sprintf("SectionKind(%d)", int(k))
	}
	return sectionKindNames[k]
}

func ParseSectionKind(name string) (SectionKind, error) {
	for k, n := range sectionKindNames {
		if n == name {
			return SectionKind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown section kind %q", name)
}

// Landmark returns true for kinds that carry a content landmark. The shell's
// skip-navigation anchor targets the first landmark-bearing section, so
// chrome sections (header, footer) are excluded.
func (k SectionKind) Landmark() bool {
	switch k {
	case KindHeader, KindFooter:
		return false
	case KindHero, KindAbout, KindServices, KindTestimonials, KindFAQ, KindContact:
		return true
	}
	return false
}

// SupportsIsland reports whether the kind has an interactive island runtime.
// Declaring interactive: true on any other kind is a definition error.
func (k SectionKind) SupportsIsland() bool {
	switch k {
	case KindHeader, KindTestimonials, KindFAQ, KindContact:
		return true
	case KindHero, KindAbout, KindServices, KindFooter:
		return false
	}
	return false
}

// SectionState is the resolution lifecycle of a section.
type SectionState int

const (
	StateUnresolved SectionState = iota
	StateResolving
	StateResolved
	StateComposed
)

func (s SectionState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	case StateComposed:
		return "composed"
	}
	return fmt.Sprintf("SectionState(%d)", int(s))
}

// ImageUsage is one declared use of a source image inside a section: the
// display widths it is requested at plus the markup attributes that travel
// with it.
type ImageUsage struct {
	Source string
	Widths []int
	Alt    string
	Sizes  string
}

// SectionNode is one declared content block of the page.
type SectionNode struct {
	Kind        SectionKind
	Props       map[string]any
	Images      []ImageUsage
	ContentPath string
	Enabled     bool
	Interactive bool
}

// ReferencedAssets lists every source path the section depends on.
func (s SectionNode) ReferencedAssets() []string {
	refs := make([]string, 0, len(s.Images))
	for _, img := range s.Images {
		refs = append(refs, img.Source)
	}
	return refs
}

// PageMeta is passed through to the document head unmodified.
type PageMeta struct {
	Title       string
	Description string
	Lang        string
}
