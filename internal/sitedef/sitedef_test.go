package sitedef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const minimalSite = `
page:
  title: Ser Livre Psicologia
  description: Clinical psychology practice
  lang: pt-BR
sections:
  - kind: hero
    props:
      heading: Welcome
  - kind: faq
    interactive: true
    props:
      items:
        - question: Where?
          answer: Online.
  - kind: footer
`

func TestLoadMinimalDefinition(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site.yaml", minimalSite)

	def, err := Load(filepath.Join(root, "site.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if def.Meta.Title != "Ser Livre Psicologia" || def.Meta.Lang != "pt-BR" {
		t.Errorf("page meta not mapped: %+v", def.Meta)
	}
	if def.OutputDir != "dist" || def.AssetsDir != "assets" {
		t.Errorf("defaults not applied: out=%s assets=%s", def.OutputDir, def.AssetsDir)
	}
	if len(def.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(def.Sections))
	}
	if def.Sections[0].Kind != core.KindHero || !def.Sections[0].Enabled {
		t.Errorf("hero section mismapped: %+v", def.Sections[0])
	}
	if !def.Sections[1].Interactive {
		t.Error("faq interactivity flag lost")
	}
}

func TestLoadDisabledSection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site.yaml", `
sections:
  - kind: hero
  - kind: faq
    enabled: false
`)

	def, err := Load(filepath.Join(root, "site.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !def.Sections[0].Enabled {
		t.Error("enabled must default to true")
	}
	if def.Sections[1].Enabled {
		t.Error("explicit enabled: false ignored")
	}
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site.yaml", "sections:\n  - kind: sidebar\n")

	_, err := Load(filepath.Join(root, "site.yaml"))
	if !core.IsKind(err, core.ErrInvalidDefinition) {
		t.Fatalf("expected invalid_definition, got %v", err)
	}
}

func TestLoadRejectsInteractivityWithoutIsland(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site.yaml", "sections:\n  - kind: about\n    interactive: true\n")

	_, err := Load(filepath.Join(root, "site.yaml"))
	if !core.IsKind(err, core.ErrInvalidDefinition) {
		t.Fatalf("expected invalid_definition, got %v", err)
	}
}

func TestLoadRejectsImageWithoutWidths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site.yaml", `
sections:
  - kind: hero
    images:
      - src: images/portrait.png
`)

	_, err := Load(filepath.Join(root, "site.yaml"))
	if !core.IsKind(err, core.ErrInvalidDefinition) {
		t.Fatalf("expected invalid_definition, got %v", err)
	}
}

func TestLoadFontDeclarations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site.yaml", `
fonts:
  - family: Fraunces
    token: display
    fallback: serif
    usedWeights: [400, 600]
    sources:
      - file: fonts/fraunces.woff2
        weights: [300, 900]
      - file: fonts/fraunces-italic.woff2
        weights: [300, 900]
        style: italic
sections:
  - kind: hero
`)

	def, err := Load(filepath.Join(root, "site.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if len(def.Fonts) != 1 {
		t.Fatalf("expected 1 family, got %d", len(def.Fonts))
	}
	f := def.Fonts[0]
	if f.Token != "display" || len(f.Sources) != 2 {
		t.Fatalf("family mismapped: %+v", f)
	}
	if f.Sources[0].Style != core.StyleNormal || f.Sources[1].Style != core.StyleItalic {
		t.Error("source styles mismapped")
	}
	if f.Sources[0].Weights != (core.WeightRange{Min: 300, Max: 900}) {
		t.Errorf("weight range mismapped: %+v", f.Sources[0].Weights)
	}
}

func TestMarkdownContentRendered(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "content/about.md", `---
title: About Me
---
I am a **clinical** psychologist.
`)
	writeFile(t, root, "site.yaml", `
sections:
  - kind: about
    content: about.md
`)

	def, err := Load(filepath.Join(root, "site.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	prose := string(def.Prose[0])
	if !strings.Contains(prose, "<strong>clinical</strong>") {
		t.Errorf("markdown not rendered: %q", prose)
	}
	if def.Sections[0].Props["title"] != "About Me" {
		t.Errorf("frontmatter not folded into props: %v", def.Sections[0].Props)
	}
}

func TestFrontmatterNeverOverridesDeclaredProps(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "content/about.md", "---\ntitle: From Frontmatter\n---\nBody.\n")
	writeFile(t, root, "site.yaml", `
sections:
  - kind: about
    content: about.md
    props:
      title: Declared
`)

	def, err := Load(filepath.Join(root, "site.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if def.Sections[0].Props["title"] != "Declared" {
		t.Errorf("declaration must win on conflict, got %v", def.Sections[0].Props["title"])
	}
}

func TestMissingContentFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site.yaml", "sections:\n  - kind: about\n    content: ghost.md\n")

	_, err := Load(filepath.Join(root, "site.yaml"))
	if !core.IsKind(err, core.ErrNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestStaticFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "site.yaml", "sections:\n  - kind: hero\n")
	writeFile(t, root, "public/favicon.svg", "<svg/>")
	writeFile(t, root, "public/robots.txt", "User-agent: *\n")

	def, err := Load(filepath.Join(root, "site.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	files, err := def.StaticFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 static files, got %d", len(files))
	}
	if string(files["favicon.svg"]) != "<svg/>" {
		t.Error("favicon bytes mangled")
	}
}
