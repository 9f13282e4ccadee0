package compose

import (
	"bytes"
	"fmt"
	"html/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
)

var titleCaser = cases.Title(language.English)

type imageView struct {
	Alt            string
	Sizes          string
	Width          int
	Height         int
	Srcset         string
	FallbackSrcset string
	FallbackSrc    string
	FallbackMIME   string
}

type sectionView struct {
	ID          string
	Kind        string
	Landmark    bool
	Interactive bool
	Title       string
	Props       map[string]any
	Prose       template.HTML
	Images      []imageView
}

// pictureTemplate bakes the intrinsic width/height of every image into the
// markup so layout never shifts regardless of which variant loads.
var pictureTemplate = template.Must(template.New("picture").Parse(`<picture>
<source type="image/webp" srcset="{{.Srcset}}"{{if .Sizes}} sizes="{{.Sizes}}"{{end}} />
<img src="{{.FallbackSrc}}" srcset="{{.FallbackSrcset}}"{{if .Sizes}} sizes="{{.Sizes}}"{{end}} width="{{.Width}}" height="{{.Height}}" alt="{{.Alt}}" loading="lazy" decoding="async" />
</picture>`))

var sectionTemplates = map[core.SectionKind]*template.Template{
	core.KindHeader: mustSection("header", `<header id="{{.ID}}" data-section="header"{{if .Interactive}} data-island="header"{{end}}>
{{if .Images}}{{index .Images 0 | picture}}{{end}}<span class="brand">{{.Title}}</span>
{{if .Interactive}}<button type="button" data-nav-toggle aria-expanded="false">Menu</button>
{{end}}<nav aria-label="Main">{{range .Props.links}}<a href="{{index . "href"}}">{{index . "label"}}</a>{{end}}</nav>
</header>`),

	core.KindHero: mustSection("hero", `<section id="{{.ID}}" data-section="hero" aria-label="{{.Title}}">
<h1>{{with .Props.heading}}{{.}}{{else}}{{.Title}}{{end}}</h1>
{{with .Props.tagline}}<p class="tagline">{{.}}</p>
{{end}}{{range .Images}}{{picture .}}
{{end}}{{with .Props.cta}}<a class="cta" href="{{index . "href"}}">{{index . "label"}}</a>{{end}}
</section>`),

	core.KindAbout: mustSection("about", `<section id="{{.ID}}" data-section="about">
<h2>{{.Title}}</h2>
{{range .Images}}{{picture .}}
{{end}}{{.Prose}}
</section>`),

	core.KindServices: mustSection("services", `<section id="{{.ID}}" data-section="services">
<h2>{{.Title}}</h2>
{{.Prose}}<ul>
{{range .Props.items}}<li><h3>{{index . "title"}}</h3><p>{{index . "description"}}</p></li>
{{end}}</ul>
</section>`),

	core.KindTestimonials: mustSection("testimonials", `<section id="{{.ID}}" data-section="testimonials"{{if .Interactive}} data-island="testimonials"{{end}}>
<h2>{{.Title}}</h2>
{{range .Props.quotes}}<blockquote><p>{{index . "text"}}</p><cite>{{index . "author"}}</cite></blockquote>
{{end}}{{if .Interactive}}<button type="button" data-prev aria-label="Previous">&larr;</button><button type="button" data-next aria-label="Next">&rarr;</button>
{{end}}</section>`),

	core.KindFAQ: mustSection("faq", `<section id="{{.ID}}" data-section="faq"{{if .Interactive}} data-island="faq"{{end}}>
<h2>{{.Title}}</h2>
{{range .Props.items}}<details><summary>{{index . "question"}}</summary><p>{{index . "answer"}}</p></details>
{{end}}</section>`),

	core.KindContact: mustSection("contact", `<section id="{{.ID}}" data-section="contact"{{if .Interactive}} data-island="contact"{{end}}>
<h2>{{.Title}}</h2>
{{.Prose}}{{with .Props.email}}<a href="mailto:{{.}}"{{if $.Interactive}} data-copy="{{.}}"{{end}}>{{.}}</a>
{{end}}{{with .Props.whatsapp}}<a href="{{.}}" rel="noopener">WhatsApp</a>
{{end}}</section>`),

	core.KindFooter: mustSection("footer", `<footer id="{{.ID}}" data-section="footer">
{{with .Props.note}}<p>{{.}}</p>
{{end}}<nav aria-label="Footer">{{range .Props.links}}<a href="{{index . "href"}}">{{index . "label"}}</a>{{end}}</nav>
</footer>`),
}

func mustSection(name, body string) *template.Template {
	t := template.New(name).Funcs(template.FuncMap{"picture": renderPicture})
	return template.Must(t.Parse(body))
}

func renderPicture(img imageView) (template.HTML, error) {
	var buf bytes.Buffer
	if err := pictureTemplate.Execute(&buf, img); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// renderSection dispatches on the closed kind enumeration. The switch is
// exhaustive: a new kind fails here at development time instead of falling
// through a string lookup at build time.
func renderSection(view sectionView, kind core.SectionKind) (template.HTML, error) {
	var tmpl *template.Template
	switch kind {
	case core.KindHeader:
		tmpl = sectionTemplates[core.KindHeader]
	case core.KindHero:
		tmpl = sectionTemplates[core.KindHero]
	case core.KindAbout:
		tmpl = sectionTemplates[core.KindAbout]
	case core.KindServices:
		tmpl = sectionTemplates[core.KindServices]
	case core.KindTestimonials:
		tmpl = sectionTemplates[core.KindTestimonials]
	case core.KindFAQ:
		tmpl = sectionTemplates[core.KindFAQ]
	case core.KindContact:
		tmpl = sectionTemplates[core.KindContact]
	case core.KindFooter:
		tmpl = sectionTemplates[core.KindFooter]
	default:
		return "", fmt.Errorf("no renderer for section kind %v", kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// defaultTitle derives a human title from the kind name when the declaration
// does not provide one.
func defaultTitle(kind core.SectionKind) string {
	return titleCaser.String(kind.String())
}
