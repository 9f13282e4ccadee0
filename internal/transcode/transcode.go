// Package transcode produces size/format variants for registered images.
// Units for independent (asset, width, format) triples are embarrassingly
// parallel and run on a bounded worker pool; deduplication is global across
// all usage sites.
package transcode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	_ "image/gif"

	_ "golang.org/x/image/webp"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/registry"
)

// MaxWidthsPerAsset bounds the variant combinations a single source image
// may fan out to, keeping output growth linear as usage sites accumulate.
const MaxWidthsPerAsset = 8

const jpegQuality = 85

// Unit is one independent transcoding work item.
type Unit struct {
	Record *core.AssetRecord
	Width  int // effective width, upscaling already clamped away
	Height int
	Format core.ImageFormat
}

// Key is the global deduplication key for the unit.
func (u Unit) Key() string {
	return core.VariantKey(u.Record.ContentHash, u.Width, u.Format)
}

// Set indexes produced variants for the composer: requested display widths
// map onto the effective (clamped) variants that actually exist.
type Set struct {
	variants  map[string]core.ImageVariant
	effective map[string]int
	dims      map[string][2]int
}

// Resolved pairs the modern and fallback variants for one usage width.
type Resolved struct {
	WebP     core.ImageVariant
	Fallback core.ImageVariant
}

// Resolve returns the variant pair serving a requested display width.
func (s *Set) Resolve(parentHash string, requestedWidth int) (Resolved, bool) {
	eff, ok := s.effective[fmt.Sprintf("%s:%d", parentHash, requestedWidth)]
	if !ok {
		return Resolved{}, false
	}

	webp, ok := s.variants[core.VariantKey(parentHash, eff, core.FormatWebP)]
	if !ok {
		return Resolved{}, false
	}

	for _, f := range []core.ImageFormat{core.FormatPNG, core.FormatJPEG} {
		if fb, ok := s.variants[core.VariantKey(parentHash, eff, f)]; ok {
			return Resolved{WebP: webp, Fallback: fb}, true
		}
	}
	return Resolved{}, false
}

// SourceDims returns the intrinsic dimensions of a registered source image.
func (s *Set) SourceDims(parentHash string) (w, h int, ok bool) {
	d, ok := s.dims[parentHash]
	return d[0], d[1], ok
}

// Variants returns every produced variant ordered by output path.
func (s *Set) Variants() []core.ImageVariant {
	out := make([]core.ImageVariant, 0, len(s.variants))
	for _, v := range s.variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OutputPath < out[j].OutputPath })
	return out
}

// FallbackFormat picks the legacy encoding for a source image: photographic
// sources keep JPEG, everything else falls back to PNG.
func FallbackFormat(sourcePath string) core.ImageFormat {
	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".jpg", ".jpeg":
		return core.FormatJPEG
	default:
		return core.FormatPNG
	}
}

// Plan expands requested (asset, width) pairs into deduplicated transcoding
// units. Requested widths larger than the source clamp to the source width
// (never upscale); widths collapsing onto the same effective width collapse
// onto the same unit.
func Plan(reg *registry.Registry, requests map[string][]int) (*Set, []Unit, error) {
	set := &Set{
		variants:  make(map[string]core.ImageVariant),
		effective: make(map[string]int),
		dims:      make(map[string][2]int),
	}

	hashes := make([]string, 0, len(requests))
	for h := range requests {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	var units []Unit
	seen := make(map[string]bool)

	for _, parentHash := range hashes {
		data, ok := reg.Content(parentHash)
		if !ok {
			return nil, nil, &core.BuildError{
				Op:   "transcode.plan",
				Kind: core.ErrUnresolvedReference,
				Path: parentHash,
			}
		}

		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, nil, &core.BuildError{
				Op:   "transcode.plan",
				Kind: core.ErrUnsupportedKind,
				Path: recordPath(reg, parentHash),
				Err:  err,
			}
		}
		set.dims[parentHash] = [2]int{cfg.Width, cfg.Height}

		record := recordFor(reg, parentHash)
		fallback := FallbackFormat(record.SourcePath)

		effWidths := make(map[int]bool)
		for _, requested := range requests[parentHash] {
			eff := requested
			if eff > cfg.Width {
				eff = cfg.Width
			}
			set.effective[fmt.Sprintf("%s:%d", parentHash, requested)] = eff
			effWidths[eff] = true
		}

		if len(effWidths) > MaxWidthsPerAsset {
			return nil, nil, &core.BuildError{
				Op:   "transcode.plan",
				Kind: core.ErrInvalidDefinition,
				Path: record.SourcePath,
				Err:  fmt.Errorf("%d distinct widths exceed the per-asset cap of %d", len(effWidths), MaxWidthsPerAsset),
			}
		}

		widths := make([]int, 0, len(effWidths))
		for w := range effWidths {
			widths = append(widths, w)
		}
		sort.Ints(widths)

		for _, w := range widths {
			h := scaledHeight(cfg.Width, cfg.Height, w)
			for _, format := range []core.ImageFormat{core.FormatWebP, fallback} {
				unit := Unit{Record: record, Width: w, Height: h, Format: format}
				if seen[unit.Key()] {
					continue
				}
				seen[unit.Key()] = true
				units = append(units, unit)
			}
		}
	}

	return set, units, nil
}

func scaledHeight(srcW, srcH, width int) int {
	if width >= srcW {
		return srcH
	}
	return int(math.Round(float64(width) * float64(srcH) / float64(srcW)))
}

func recordFor(reg *registry.Registry, hash string) *core.AssetRecord {
	for _, rec := range reg.Records() {
		if rec.ContentHash == hash {
			return rec
		}
	}
	return &core.AssetRecord{ContentHash: hash}
}

func recordPath(reg *registry.Registry, hash string) string {
	return recordFor(reg, hash).SourcePath
}

// Encode runs one unit: decode, aspect-preserving resample, deterministic
// re-encode. Identical inputs and parameters always produce byte-identical
// output. Returns the variant descriptor and the encoded payload.
func Encode(reg *registry.Registry, unit Unit) (core.ImageVariant, []byte, error) {
	data, ok := reg.Content(unit.Record.ContentHash)
	if !ok {
		return core.ImageVariant{}, nil, &core.BuildError{
			Op:   "transcode.encode",
			Kind: core.ErrUnresolvedReference,
			Path: unit.Record.SourcePath,
		}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return core.ImageVariant{}, nil, &core.BuildError{
			Op:   "transcode.encode",
			Kind: core.ErrUnsupportedKind,
			Path: unit.Record.SourcePath,
			Err:  err,
		}
	}

	scaled := resample(src, unit.Width, unit.Height)

	var buf bytes.Buffer
	switch unit.Format {
	case core.FormatWebP:
		err = nativewebp.Encode(&buf, scaled, nil)
	case core.FormatPNG:
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, scaled)
	case core.FormatJPEG:
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality})
	default:
		err = fmt.Errorf("unknown format %v", unit.Format)
	}
	if err != nil {
		return core.ImageVariant{}, nil, &core.BuildError{
			Op:   "transcode.encode",
			Kind: core.ErrInternal,
			Path: unit.Record.SourcePath,
			Err:  err,
		}
	}

	hash := core.HashContent(buf.Bytes())
	variant := core.ImageVariant{
		ParentHash:  unit.Record.ContentHash,
		Width:       unit.Width,
		Height:      unit.Height,
		Format:      unit.Format,
		OutputPath:  core.VariantAssetPath(core.Stem(unit.Record.SourcePath), unit.Width, hash, unit.Format.Ext()),
		ContentHash: hash,
	}
	return variant, buf.Bytes(), nil
}

func resample(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return src
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
