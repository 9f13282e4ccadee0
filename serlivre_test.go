package serlivre

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
	islands "github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/runtime"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/sitedef"
)

const scenarioPreamble = `
page:
  title: Ser Livre Psicologia
  description: Psicoterapia humanizada e acolhedora
  lang: pt-BR
fonts:
  - family: Fraunces
    token: display
    fallback: serif
    sources:
      - file: fonts/fraunces.woff2
        weights: [300, 900]
  - family: Karla
    token: body
    fallback: sans-serif
    sources:
      - file: fonts/karla.woff2
        weights: [400, 700]
      - file: fonts/karla-italic.woff2
        weights: [400, 700]
        style: italic
`

const scenarioSite = scenarioPreamble + `sections:
  - kind: header
    props:
      title: Ser Livre
  - kind: hero
    props:
      title: Psicoterapia que liberta
    images:
      - src: images/portrait.png
        widths: [320, 480, 600]
        alt: Retrato da psicologa
        sizes: "(max-width: 600px) 100vw, 600px"
  - kind: about
    content: about.md
    images:
      - src: images/clinic.png
        widths: [400]
        alt: Consultorio
  - kind: services
    props:
      title: Atendimentos
  - kind: testimonials
  - kind: faq
    props:
      items:
        - question: Como funciona a primeira sessao?
          answer: Uma conversa inicial sem compromisso.
  - kind: contact
  - kind: footer
`

const scenarioTokens = `:root {
  --color-bg: #faf7f2;
  --color-ink: #2e2a26;
}
body { font-family: var(--font-body); }
h1, h2 { font-family: var(--font-display); }
`

func writeFile(t *testing.T, root, name string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writePNG(t *testing.T, root, name string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 251), G: uint8(y % 241), B: uint8((x + y) % 239), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, name, buf.Bytes())
}

func writeWOFF2(t *testing.T, root, name, payload string) {
	t.Helper()
	writeFile(t, root, name, append([]byte("wOF2"), []byte(payload)...))
}

// scaffold lays out a complete site source tree and returns its root.
func scaffold(t *testing.T, site string) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, root, "site.yaml", []byte(site))
	writeFile(t, root, "styles/tokens.css", []byte(scenarioTokens))
	writeFile(t, root, "content/about.md", []byte("---\ntitle: Sobre mim\n---\nPsicologa **clinica** com foco em acolhimento.\n"))
	writeFile(t, root, "public/favicon.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))
	writeFile(t, root, "public/robots.txt", []byte("User-agent: *\nAllow: /\n"))

	writePNG(t, root, "assets/images/portrait.png", 600, 400)
	writePNG(t, root, "assets/images/clinic.png", 800, 500)

	writeWOFF2(t, root, "assets/fonts/fraunces.woff2", "fraunces-variable")
	writeWOFF2(t, root, "assets/fonts/karla.woff2", "karla-variable")
	writeWOFF2(t, root, "assets/fonts/karla-italic.woff2", "karla-variable-italic")

	return root
}

func load(t *testing.T, root string) *sitedef.Definition {
	t.Helper()
	def, err := sitedef.Load(filepath.Join(root, "site.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	return def
}

func countSuffix(artifacts []core.OutputArtifact, prefix, suffix string) int {
	n := 0
	for _, a := range artifacts {
		if strings.HasPrefix(a.LogicalPath, prefix) && strings.HasSuffix(a.LogicalPath, suffix) {
			n++
		}
	}
	return n
}

func entryDoc(t *testing.T, artifacts []core.OutputArtifact) core.OutputArtifact {
	t.Helper()
	for _, a := range artifacts {
		if a.LogicalPath == EntryDocument {
			return a
		}
	}
	t.Fatal("no entry document emitted")
	return core.OutputArtifact{}
}

func TestBuildFullSite(t *testing.T) {
	root := scaffold(t, scenarioSite)

	result, err := Build(context.Background(), load(t, root), WithWorkers(4))
	if err != nil {
		t.Fatal(err)
	}

	entries := 0
	for _, a := range result.Artifacts {
		if strings.HasSuffix(a.LogicalPath, ".html") {
			entries++
		}
	}
	if entries != 1 {
		t.Errorf("expected exactly 1 entry document, got %d", entries)
	}

	// 3 widths for the portrait, 1 for the clinic shot, per format.
	if got := countSuffix(result.Artifacts, "assets/", ".webp"); got != 4 {
		t.Errorf("expected 4 webp variants, got %d", got)
	}
	if got := countSuffix(result.Artifacts, "assets/", ".png"); got != 4 {
		t.Errorf("expected 4 png fallback variants, got %d", got)
	}

	// One face per declared source: fraunces, karla, karla italic.
	if got := countSuffix(result.Artifacts, "assets/fonts/", ".woff2"); got != 3 {
		t.Errorf("expected 3 packaged faces, got %d", got)
	}

	entry := entryDoc(t, result.Artifacts)
	html := string(entry.Bytes)
	if !strings.Contains(html, `lang="pt-BR"`) {
		t.Error("page language not carried into the document")
	}
	if !strings.Contains(html, "<strong>clinica</strong>") {
		t.Error("markdown prose missing from the about section")
	}
	if strings.Contains(html, "<script") {
		t.Error("script tag shipped with no section opted into interactivity")
	}

	for _, fixed := range []string{"index.html", "favicon.svg", "robots.txt"} {
		if _, err := os.Stat(filepath.Join(result.OutputDir, fixed)); err != nil {
			t.Errorf("fixed file %s not published: %v", fixed, err)
		}
	}
}

func TestBuildUnregisteredAssetFails(t *testing.T) {
	broken := strings.Replace(scenarioSite, "images/portrait.png", "images/ghost.png", 1)
	root := scaffold(t, broken)

	_, err := Build(context.Background(), load(t, root))
	if !core.IsKind(err, core.ErrUnresolvedReference) {
		t.Fatalf("expected unresolved_reference, got %v", err)
	}

	report := FailureReport(err)
	if report.Status != "failed" || report.Error == nil {
		t.Fatalf("failure report malformed: %+v", report)
	}
	if report.Error.Kind != string(core.ErrUnresolvedReference) {
		t.Errorf("report kind = %s", report.Error.Kind)
	}
	if report.Error.Section != "hero" {
		t.Errorf("report must name the section kind, got %q", report.Error.Section)
	}
	if report.Error.Path != "images/ghost.png" {
		t.Errorf("report must name the asset path, got %q", report.Error.Path)
	}

	// Nothing may be published on failure.
	if _, statErr := os.Stat(filepath.Join(root, "dist")); !os.IsNotExist(statErr) {
		t.Error("failed build must not publish an output directory")
	}
}

func TestBuildIdempotent(t *testing.T) {
	root := scaffold(t, scenarioSite)
	def := load(t, root)

	first, err := Build(context.Background(), def, WithVerify())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Build(context.Background(), load(t, root), WithWorkers(1))
	if err != nil {
		t.Fatal(err)
	}

	if first.Fingerprint != second.Fingerprint {
		t.Errorf("unchanged inputs produced diverging bundles: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
}

func TestBuildPreservesPreviousBundleOnFailure(t *testing.T) {
	root := scaffold(t, scenarioSite)

	if _, err := Build(context.Background(), load(t, root)); err != nil {
		t.Fatal(err)
	}
	published, err := os.ReadFile(filepath.Join(root, "dist", "index.html"))
	if err != nil {
		t.Fatal(err)
	}

	// Break the source tree and rebuild: the bundle must survive untouched.
	if err := os.Remove(filepath.Join(root, "assets", "images", "clinic.png")); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(context.Background(), load(t, root)); err == nil {
		t.Fatal("build with a missing asset must fail")
	}

	after, err := os.ReadFile(filepath.Join(root, "dist", "index.html"))
	if err != nil {
		t.Fatalf("previous bundle was disturbed: %v", err)
	}
	if !bytes.Equal(published, after) {
		t.Error("previous entry document was rewritten by a failed build")
	}
}

func TestSectionOrderFollowsDeclaration(t *testing.T) {
	reordered := scenarioPreamble + `sections:
  - kind: footer
  - kind: faq
    props:
      items:
        - question: Q
          answer: A
  - kind: hero
`
	root := scaffold(t, reordered)

	result, err := Build(context.Background(), load(t, root))
	if err != nil {
		t.Fatal(err)
	}

	html := string(entryDoc(t, result.Artifacts).Bytes)
	footer := strings.Index(html, `data-section="footer"`)
	faq := strings.Index(html, `data-section="faq"`)
	hero := strings.Index(html, `data-section="hero"`)
	if footer < 0 || faq < 0 || hero < 0 {
		t.Fatal("sections missing from the entry document")
	}
	if !(footer < faq && faq < hero) {
		t.Errorf("document order does not follow declaration: footer=%d faq=%d hero=%d", footer, faq, hero)
	}
}

func TestInteractivityOptInShipsOnlyThatIsland(t *testing.T) {
	interactive := strings.Replace(scenarioSite, "- kind: faq\n", "- kind: faq\n    interactive: true\n", 1)
	root := scaffold(t, interactive)

	result, err := Build(context.Background(), load(t, root))
	if err != nil {
		t.Fatal(err)
	}

	var script []byte
	for _, a := range result.Artifacts {
		if strings.HasSuffix(a.LogicalPath, ".js") {
			script = a.Bytes
		}
	}
	if script == nil {
		t.Fatal("opted-in interactivity produced no script bundle")
	}
	if !bytes.Contains(script, []byte(islands.IslandMarker(core.KindFAQ))) {
		t.Error("faq island missing from the bundle")
	}
	for _, kind := range []core.SectionKind{core.KindHeader, core.KindTestimonials, core.KindContact} {
		if bytes.Contains(script, []byte(islands.IslandMarker(kind))) {
			t.Errorf("island %s shipped without opt-in", kind)
		}
	}

	html := string(entryDoc(t, result.Artifacts).Bytes)
	if !strings.Contains(html, "<script") {
		t.Error("entry document does not load the island bundle")
	}
}

func TestSuccessReportInventory(t *testing.T) {
	root := scaffold(t, scenarioSite)

	result, err := Build(context.Background(), load(t, root))
	if err != nil {
		t.Fatal(err)
	}

	report := SuccessReport(result)
	if report.Status != "ok" || report.Fingerprint != result.Fingerprint {
		t.Fatalf("report header malformed: %+v", report)
	}
	if len(report.Artifacts) != len(result.Artifacts) {
		t.Errorf("report lists %d artifacts, bundle has %d", len(report.Artifacts), len(result.Artifacts))
	}

	var buf bytes.Buffer
	if err := report.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"status": "ok"`) {
		t.Errorf("report encoding unexpected: %s", buf.String())
	}
}

func TestEntryDocumentSnapshot(t *testing.T) {
	root := scaffold(t, scenarioSite)

	result, err := Build(context.Background(), load(t, root))
	if err != nil {
		t.Fatal(err)
	}

	snaps.WithConfig(snaps.Ext(".html")).MatchSnapshot(t, string(entryDoc(t, result.Artifacts).Bytes))
}
