// Package sitedef loads the declarative site definition: the ordered section
// list, font family declarations, page metadata, and the paths the pipeline
// consumes. Section prose may be authored as Markdown with YAML frontmatter.
package sitedef

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/typeface"
)

// Definition is the parsed site definition. All directories are resolved
// relative to the definition file.
type Definition struct {
	Root       string
	Meta       core.PageMeta
	OutputDir  string
	AssetsDir  string
	ContentDir string
	TokensPath string
	StaticDir  string
	Fonts      []typeface.FamilyDecl
	Sections   []core.SectionNode
	Prose      []template.HTML // parallel to Sections
}

type yamlDefinition struct {
	Page struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Lang        string `yaml:"lang"`
	} `yaml:"page"`
	Output  string        `yaml:"output"`
	Assets  string        `yaml:"assets"`
	Content string        `yaml:"content"`
	Tokens  string        `yaml:"tokens"`
	Static  string        `yaml:"static"`
	Fonts   []yamlFont    `yaml:"fonts"`
	Sections []yamlSection `yaml:"sections"`
}

type yamlFont struct {
	Family      string           `yaml:"family"`
	Token       string           `yaml:"token"`
	Fallback    string           `yaml:"fallback"`
	UsedWeights []int            `yaml:"usedWeights"`
	Sources     []yamlFontSource `yaml:"sources"`
}

type yamlFontSource struct {
	File    string `yaml:"file"`
	Weights []int  `yaml:"weights"`
	Style   string `yaml:"style"`
}

type yamlSection struct {
	Kind        string         `yaml:"kind"`
	Enabled     *bool          `yaml:"enabled"`
	Interactive bool           `yaml:"interactive"`
	Content     string         `yaml:"content"`
	Props       map[string]any `yaml:"props"`
	Images      []yamlImage    `yaml:"images"`
}

type yamlImage struct {
	Src    string `yaml:"src"`
	Widths []int  `yaml:"widths"`
	Alt    string `yaml:"alt"`
	Sizes  string `yaml:"sizes"`
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Load reads and validates a site definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.BuildError{Op: "sitedef.load", Kind: core.ErrNotFound, Path: path, Err: err}
	}

	var raw yamlDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &core.BuildError{Op: "sitedef.load", Kind: core.ErrInvalidDefinition, Path: path, Err: err}
	}

	def := &Definition{
		Root: filepath.Dir(path),
		Meta: core.PageMeta{
			Title:       raw.Page.Title,
			Description: raw.Page.Description,
			Lang:        raw.Page.Lang,
		},
		OutputDir:  defaultStr(raw.Output, "dist"),
		AssetsDir:  defaultStr(raw.Assets, "assets"),
		ContentDir: defaultStr(raw.Content, "content"),
		TokensPath: defaultStr(raw.Tokens, "styles/tokens.css"),
		StaticDir:  defaultStr(raw.Static, "public"),
	}

	for _, f := range raw.Fonts {
		family, err := mapFont(path, f)
		if err != nil {
			return nil, err
		}
		def.Fonts = append(def.Fonts, family)
	}

	for i, s := range raw.Sections {
		node, prose, err := mapSection(def, path, i, s)
		if err != nil {
			return nil, err
		}
		def.Sections = append(def.Sections, node)
		def.Prose = append(def.Prose, prose)
	}

	return def, nil
}

func mapFont(path string, f yamlFont) (typeface.FamilyDecl, error) {
	if f.Family == "" || f.Token == "" {
		return typeface.FamilyDecl{}, &core.BuildError{
			Op:   "sitedef.load",
			Kind: core.ErrInvalidDefinition,
			Path: path,
			Err:  fmt.Errorf("font declaration needs family and token"),
		}
	}

	family := typeface.FamilyDecl{
		Family:      f.Family,
		Token:       f.Token,
		Fallback:    f.Fallback,
		UsedWeights: f.UsedWeights,
	}

	for _, src := range f.Sources {
		r, err := mapWeights(src.Weights)
		if err != nil {
			return typeface.FamilyDecl{}, &core.BuildError{
				Op:   "sitedef.load",
				Kind: core.ErrInvalidDefinition,
				Path: src.File,
				Err:  err,
			}
		}

		style := core.StyleNormal
		switch src.Style {
		case "", "normal":
		case "italic":
			style = core.StyleItalic
		default:
			return typeface.FamilyDecl{}, &core.BuildError{
				Op:   "sitedef.load",
				Kind: core.ErrInvalidDefinition,
				Path: src.File,
				Err:  fmt.Errorf("unknown font style %q", src.Style),
			}
		}

		family.Sources = append(family.Sources, typeface.SourceDecl{File: src.File, Weights: r, Style: style})
	}

	return family, nil
}

func mapWeights(weights []int) (core.WeightRange, error) {
	switch len(weights) {
	case 1:
		return core.WeightRange{Min: weights[0], Max: weights[0]}, nil
	case 2:
		if weights[0] > weights[1] {
			return core.WeightRange{}, fmt.Errorf("weight range %v is inverted", weights)
		}
		return core.WeightRange{Min: weights[0], Max: weights[1]}, nil
	default:
		return core.WeightRange{}, fmt.Errorf("weights must be [value] or [min, max], got %v", weights)
	}
}

func mapSection(def *Definition, path string, index int, s yamlSection) (core.SectionNode, template.HTML, error) {
	kind, err := core.ParseSectionKind(s.Kind)
	if err != nil {
		return core.SectionNode{}, "", &core.BuildError{
			Op:      "sitedef.load",
			Kind:    core.ErrInvalidDefinition,
			Path:    path,
			Section: s.Kind,
			Err:     fmt.Errorf("section %d: %w", index, err),
		}
	}

	if s.Interactive && !kind.SupportsIsland() {
		return core.SectionNode{}, "", &core.BuildError{
			Op:      "sitedef.load",
			Kind:    core.ErrInvalidDefinition,
			Path:    path,
			Section: kind.String(),
			Err:     fmt.Errorf("kind %s has no island runtime to opt into", kind),
		}
	}

	node := core.SectionNode{
		Kind:        kind,
		Props:       s.Props,
		Enabled:     s.Enabled == nil || *s.Enabled,
		Interactive: s.Interactive,
		ContentPath: s.Content,
	}
	if node.Props == nil {
		node.Props = map[string]any{}
	}

	for _, img := range s.Images {
		if img.Src == "" || len(img.Widths) == 0 {
			return core.SectionNode{}, "", &core.BuildError{
				Op:      "sitedef.load",
				Kind:    core.ErrInvalidDefinition,
				Path:    img.Src,
				Section: kind.String(),
				Err:     fmt.Errorf("image usage needs src and at least one width"),
			}
		}
		node.Images = append(node.Images, core.ImageUsage{
			Source: img.Src,
			Widths: img.Widths,
			Alt:    img.Alt,
			Sizes:  img.Sizes,
		})
	}

	var prose template.HTML
	if s.Content != "" {
		prose, err = def.renderContent(kind, s.Content, node.Props)
		if err != nil {
			return core.SectionNode{}, "", err
		}
	}

	return node, prose, nil
}

// renderContent reads a Markdown content file, folds its frontmatter into
// the section props (declaration wins on conflict), and renders the body.
func (d *Definition) renderContent(kind core.SectionKind, rel string, props map[string]any) (template.HTML, error) {
	full := filepath.Join(d.Root, filepath.FromSlash(d.ContentDir), filepath.FromSlash(rel))
	data, err := os.ReadFile(full)
	if err != nil {
		return "", &core.BuildError{
			Op:      "sitedef.content",
			Kind:    core.ErrNotFound,
			Path:    rel,
			Section: kind.String(),
			Err:     err,
		}
	}

	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		// No frontmatter block is fine; treat the whole file as Markdown.
		body = data
		meta = nil
	}

	for k, v := range meta {
		if _, exists := props[k]; !exists {
			props[k] = v
		}
	}

	var html bytes.Buffer
	if err := markdown.Convert(body, &html); err != nil {
		return "", &core.BuildError{
			Op:      "sitedef.content",
			Kind:    core.ErrInvalidDefinition,
			Path:    rel,
			Section: kind.String(),
			Err:     err,
		}
	}

	return template.HTML(html.String()), nil
}

// ReadTokens returns the design-token stylesheet bytes.
func (d *Definition) ReadTokens() ([]byte, error) {
	full := filepath.Join(d.Root, filepath.FromSlash(d.TokensPath))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, &core.BuildError{Op: "sitedef.tokens", Kind: core.ErrNotFound, Path: d.TokensPath, Err: err}
	}
	return data, nil
}

// StaticFiles lists the fixed-path root files (favicon, robots.txt) to copy
// into the bundle unhashed. A missing static dir simply yields none.
func (d *Definition) StaticFiles() (map[string][]byte, error) {
	dir := filepath.Join(d.Root, filepath.FromSlash(d.StaticDir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &core.BuildError{Op: "sitedef.static", Kind: core.ErrNotFound, Path: d.StaticDir, Err: err}
	}

	files := make(map[string][]byte)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, &core.BuildError{Op: "sitedef.static", Kind: core.ErrNotFound, Path: entry.Name(), Err: err}
		}
		files[entry.Name()] = data
	}
	return files, nil
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
