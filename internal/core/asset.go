package core

import "fmt"

// AssetKind classifies a registered source file.
type AssetKind int

const (
	AssetImage AssetKind = iota
	AssetFont
)

func (k AssetKind) String() string {
	switch k {
	case AssetImage:
		return "image"
	case AssetFont:
		return "font"
	}
	return fmt.Sprintf("AssetKind(%d)", int(k))
}

// AssetRecord is a cataloged source file. Identity is the content hash, not
// the path: two byte-identical files collapse to one record.
type AssetRecord struct {
	SourcePath     string
	Kind           AssetKind
	ContentHash    string
	DeclaredUsages []string
}

// ImageFormat is a transcoding target.
type ImageFormat int

const (
	FormatWebP ImageFormat = iota
	FormatPNG
	FormatJPEG
)

func (f ImageFormat) String() string {
	switch f {
	case FormatWebP:
		return "webp"
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	}
	return fmt.Sprintf("ImageFormat(%d)", int(f))
}

func (f ImageFormat) Ext() string {
	switch f {
	case FormatWebP:
		return ".webp"
	case FormatPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	}
	return ""
}

func (f ImageFormat) MIME() string {
	switch f {
	case FormatWebP:
		return "image/webp"
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// ImageVariant is one resized/re-encoded derivative of a source image.
// Exactly one exists per (ParentHash, Width, Format) triple across all usage
// sites.
type ImageVariant struct {
	ParentHash  string
	Width       int
	Height      int
	Format      ImageFormat
	OutputPath  string
	ContentHash string
}

// VariantKey is the global deduplication key for a transcoding unit.
func VariantKey(parentHash string, width int, format ImageFormat) string {
	return fmt.Sprintf("%s:%d:%s", parentHash, width, format)
}

// FontStyle distinguishes the two face styles a family may declare.
type FontStyle int

const (
	StyleNormal FontStyle = iota
	StyleItalic
)

func (s FontStyle) String() string {
	if s == StyleItalic {
		return "italic"
	}
	return "normal"
}

// WeightRange is a variable-font weight axis span. Min == Max for a static
// weight source.
type WeightRange struct {
	Min int
	Max int
}

func (r WeightRange) Contains(weight int) bool {
	return weight >= r.Min && weight <= r.Max
}

func (r WeightRange) String() string {
	if r.Min == r.Max {
		return fmt.Sprintf("%d", r.Min)
	}
	return fmt.Sprintf("%d %d", r.Min, r.Max)
}

// FontFace is one self-hosted face declaration. A family with a weight-axis
// source and a separate italic source yields two faces, never merged.
type FontFace struct {
	Family         string
	Token          string
	Weights        WeightRange
	Style          FontStyle
	SourceFileHash string
	OutputPath     string
}

// OutputArtifact is one emitted file of the bundle.
type OutputArtifact struct {
	LogicalPath string
	ContentHash string
	Bytes       []byte
	Fixed       bool // fixed-path root file, excluded from hashed naming
}
