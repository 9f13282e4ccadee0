// Package serlivre assembles the practice's single-page site at build time.
// The pipeline runs registry → (image transcoding ∥ typeface packaging) →
// section composition → static emission, and finishes with the runtime
// elision check. All output is content-addressed except the entry document
// and fixed root files.
package serlivre

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/compose"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/elision"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/emit"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/logx"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/registry"
	islands "github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/runtime"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/sitedef"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/transcode"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/typeface"
)

// EntryDocument is the only HTML artifact the pipeline produces.
const EntryDocument = "index.html"

// Options tune a build without changing its output. Worker count never
// affects emitted bytes; Verify proves it by assembling twice.
type Options struct {
	Workers int
	Verify  bool
}

type Option func(*Options)

// WithWorkers bounds the transcoding pool. Zero means NumCPU.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithVerify assembles the bundle twice and fails the build if the two
// fingerprints diverge.
func WithVerify() Option {
	return func(o *Options) { o.Verify = true }
}

// Result describes a finished build.
type Result struct {
	Artifacts   []core.OutputArtifact
	Fingerprint string
	OutputDir   string
	Elapsed     time.Duration
}

// Build assembles the site described by def and publishes it into the
// definition's output directory. On any failure nothing is published and
// the previous output, if any, is left untouched.
func Build(ctx context.Context, def *sitedef.Definition, opts ...Option) (*Result, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.Workers < 1 {
		options.Workers = runtime.NumCPU()
	}

	start := time.Now()
	log := logx.L()

	artifacts, err := assemble(ctx, def, options.Workers)
	if err != nil {
		return nil, err
	}
	fingerprint := emit.Fingerprint(artifacts)

	if options.Verify {
		again, err := assemble(ctx, def, options.Workers)
		if err != nil {
			return nil, err
		}
		if verify := emit.Fingerprint(again); verify != fingerprint {
			return nil, &core.BuildError{
				Op:   "build.verify",
				Kind: core.ErrNonDeterministicOutput,
				Err:  fmt.Errorf("bundle fingerprint %s changed to %s on re-assembly", fingerprint, verify),
			}
		}
		log.Debug("verification pass matched", "fingerprint", fingerprint)
	}

	outDir := filepath.Join(def.Root, filepath.FromSlash(def.OutputDir))
	if err := emit.Publish(outDir, artifacts); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts:   artifacts,
		Fingerprint: fingerprint,
		OutputDir:   outDir,
		Elapsed:     time.Since(start),
	}
	log.Info("build published",
		"artifacts", len(artifacts),
		"fingerprint", fingerprint,
		"out", outDir,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// assemble runs every stage up to, but not including, publication. It is
// deliberately free of destinations so Build can run it twice for the
// determinism verification.
func assemble(ctx context.Context, def *sitedef.Definition, workers int) ([]core.OutputArtifact, error) {
	log := logx.L()
	reg := registry.New(filepath.Join(def.Root, filepath.FromSlash(def.AssetsDir)))
	staging := emit.NewStaging()

	// Stage 1: register every image the sections reference.
	requests := make(map[string][]int)
	for _, node := range def.Sections {
		if !node.Enabled {
			continue
		}
		for _, usage := range node.Images {
			rec, err := reg.Register(usage.Source, node.Kind.String())
			if err != nil {
				return nil, sectionReference(err, node.Kind, usage.Source)
			}
			requests[rec.ContentHash] = append(requests[rec.ContentHash], usage.Widths...)
		}
	}
	log.Debug("assets registered", "images", len(requests), "families", len(def.Fonts))

	// Stage 2a: transcode image variants on the bounded pool.
	set, units, err := transcode.Plan(reg, requests)
	if err != nil {
		return nil, err
	}
	pool := transcode.NewPool(transcode.WithWorkers(workers))
	if err := pool.Run(ctx, reg, set, units, staging); err != nil {
		return nil, err
	}
	log.Debug("image variants transcoded", "units", len(units), "workers", workers)

	// Stage 2b: package typefaces. Independent of 2a; kept sequential
	// because font packaging is I/O-light and the pool owns the CPU work.
	packed, err := typeface.Pack(reg, def.Fonts, staging)
	if err != nil {
		return nil, err
	}

	tokens, err := def.ReadTokens()
	if err != nil {
		return nil, err
	}
	if err := typeface.ValidateTokens(tokens, def.Fonts); err != nil {
		return nil, err
	}

	stylesheet := append(append([]byte{}, tokens...), packed.CSS...)
	cssPath := core.HashedAssetPath("styles", core.HashContent(stylesheet), ".css")
	err = staging.Put(cssPath, core.OutputArtifact{
		LogicalPath: cssPath,
		ContentHash: core.HashContent(stylesheet),
		Bytes:       stylesheet,
	})
	if err != nil {
		return nil, err
	}

	// Interactive runtime ships only for sections that opted in.
	scriptHref := ""
	var islandKinds []core.SectionKind
	for _, node := range def.Sections {
		if node.Enabled && node.Interactive {
			islandKinds = append(islandKinds, node.Kind)
		}
	}
	bundle, err := islands.Bundle(islandKinds)
	if err != nil {
		return nil, err
	}
	if bundle != nil {
		jsPath := core.HashedAssetPath("islands", core.HashContent(bundle), ".js")
		err = staging.Put(jsPath, core.OutputArtifact{
			LogicalPath: jsPath,
			ContentHash: core.HashContent(bundle),
			Bytes:       bundle,
		})
		if err != nil {
			return nil, err
		}
		scriptHref = "/" + jsPath
	}

	// Stage 3: resolve and compose sections in declared order.
	sections := compose.NewSections(def.Sections)
	for i, section := range sections {
		section.SetProse(def.Prose[i])
	}
	composer := compose.New(reg, set)
	for _, section := range sections {
		if err := composer.Resolve(section); err != nil {
			return nil, err
		}
	}
	entry, err := composer.Compose(def.Meta, sections, "/"+cssPath, scriptHref)
	if err != nil {
		return nil, err
	}

	entryArtifact := core.OutputArtifact{
		LogicalPath: EntryDocument,
		ContentHash: core.HashContent(entry),
		Bytes:       entry,
		Fixed:       true,
	}
	if err := staging.Put(EntryDocument, entryArtifact); err != nil {
		return nil, err
	}

	// Fixed-path root files ship unhashed next to the entry document.
	static, err := def.StaticFiles()
	if err != nil {
		return nil, err
	}
	for name, data := range static {
		err = staging.Put(name, core.OutputArtifact{
			LogicalPath: name,
			ContentHash: core.HashContent(data),
			Bytes:       data,
			Fixed:       true,
		})
		if err != nil {
			return nil, err
		}
	}

	// Stage 4: every hashed reference in the entry document must resolve
	// to a staged artifact before anything is published.
	if err := emit.CheckIntegrity(entryArtifact, staging); err != nil {
		return nil, err
	}

	artifacts := staging.Artifacts()

	// Stage 5: the elision check proves no runtime shipped uninvited.
	if err := elision.Check(artifacts, def.Sections); err != nil {
		return nil, err
	}

	return artifacts, nil
}

// sectionReference translates a registration failure into the vocabulary of
// the section that made the reference. A path the registry cannot produce a
// record for is, from the section's point of view, an unresolved reference.
func sectionReference(err error, kind core.SectionKind, path string) error {
	if core.IsKind(err, core.ErrNotFound) {
		return &core.BuildError{
			Op:      "build.register",
			Kind:    core.ErrUnresolvedReference,
			Path:    path,
			Section: kind.String(),
			Err:     err,
		}
	}
	var be *core.BuildError
	if errors.As(err, &be) && be.Section == "" {
		be.Section = kind.String()
	}
	return err
}
